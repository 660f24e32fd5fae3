package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/treefairy/imp2dec/pkg/rsrc"
)

type ListCmdOptions struct {
	Details bool
}

var listOpts = &ListCmdOptions{}

var ListCmd = &cobra.Command{
	Use:   "list <archive>",
	Short: "Print an archive's header and record table",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	ListCmd.Flags().BoolVarP(&listOpts.Details, "details", "d", false, "Also read every payload: image headers and a PCM summary of every sound")
}

func runList(cmd *cobra.Command, args []string) error {
	if err := rsrc.SetLogLevel(extractOpts.LogLevel); err != nil {
		return err
	}

	list := rsrc.ListArchive
	if listOpts.Details {
		list = rsrc.InspectArchive
	}
	listing, err := list(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: version %d.%d, %d records\n\n",
		listing.Path, listing.Header.Version1, listing.Header.Version2, listing.Header.RecordCount)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := "SLOT\tTAG\tTYPE\tRECORD\tSTART\tSIZE"
	if listOpts.Details {
		header += "\tDETAILS"
	}
	fmt.Fprintln(w, header)

	for i, d := range listing.Records {
		if !d.Recognized() {
			fmt.Fprintf(w, "%d\t%q\t%s\t-\t-\t-", d.Slot, d.TagString(), d.Type)
		} else {
			fmt.Fprintf(w, "%d\t%q\t%s\t%d\t%d\t%d", d.Slot, d.TagString(), d.Type, d.RecordID, d.StartOffset, d.DataSize)
		}
		if listOpts.Details && i < len(listing.Details) {
			fmt.Fprintf(w, "\t%s", listing.Details[i])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

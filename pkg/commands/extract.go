package commands

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/treefairy/imp2dec/pkg/common"
	"github.com/treefairy/imp2dec/pkg/metrics"
	"github.com/treefairy/imp2dec/pkg/rsrc"
	"github.com/treefairy/imp2dec/pkg/storage"
)

type ExtractCmdOptions struct {
	OutputPath  string
	Workers     int
	LogLevel    string
	MetricsFile string

	S3Bucket    string
	S3Prefix    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

var extractOpts = &ExtractCmdOptions{}

var RootCmd = &cobra.Command{
	Use:   "rsrcdec [archive | directory]",
	Short: "Extract the images and sounds stored in RSRC resource archives",
	Long: `Extract the images and sounds stored in RSRC resource archives.

Every archive is unpacked into a folder named after it. Images become
{slot}_{id}_{depth}bit_{width}_x_{height}.bmp (16 and 24-bit) or .png (8-bit);
sounds become {slot}_{id}.raw and {slot}_{id}.wav.

Archives from the Mac release are resource forks and are not supported.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runExtract,
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&extractOpts.LogLevel, "log-level", getEnv("RSRC_LOG_LEVEL", "info"), "Log level (debug, info, warn, error, disabled)")

	f := RootCmd.Flags()
	f.StringVarP(&extractOpts.OutputPath, "output", "o", getEnv("RSRC_OUTPUT_DIR", "."), "Directory receiving one folder per archive")
	f.IntVarP(&extractOpts.Workers, "workers", "w", getEnvInt("RSRC_WORKERS", rsrc.DefaultWorkers), "Parallel image/sound encoders")
	f.StringVar(&extractOpts.MetricsFile, "metrics-file", "", "Write prometheus metrics to this file after the run")
	f.StringVar(&extractOpts.S3Bucket, "s3-bucket", "", "Upload outputs to this S3 bucket instead of the output directory")
	f.StringVar(&extractOpts.S3Prefix, "s3-prefix", "", "Key prefix for S3 uploads")
	f.StringVar(&extractOpts.S3Region, "s3-region", getEnv("AWS_REGION", "us-east-1"), "S3 region")
	f.StringVar(&extractOpts.S3Endpoint, "s3-endpoint", "", "Custom S3 endpoint")
	f.BoolVar(&extractOpts.S3PathStyle, "s3-path-style", false, "Use path-style S3 addressing")

	RootCmd.AddCommand(ListCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	if err := rsrc.SetLogLevel(extractOpts.LogLevel); err != nil {
		return err
	}

	m := metrics.NewMetrics()
	opts := rsrc.ExtractOptions{
		InputPath:  args[0],
		OutputPath: extractOpts.OutputPath,
		Workers:    extractOpts.Workers,
		Metrics:    m,
	}
	if extractOpts.S3Bucket != "" {
		opts.S3 = &storage.S3SinkOpts{
			Bucket:         extractOpts.S3Bucket,
			Prefix:         extractOpts.S3Prefix,
			Region:         extractOpts.S3Region,
			Endpoint:       extractOpts.S3Endpoint,
			ForcePathStyle: extractOpts.S3PathStyle,
		}
	}

	err := rsrc.Extract(cmd.Context(), opts)
	if errors.Is(err, common.ErrArchiveNotFound) {
		log.Warn().Err(err).Msg("nothing to extract")
		return nil
	}

	s := m.Summary()
	log.Info().
		Int("decoded", s.Decoded).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Int("files", s.FilesWritten).
		Int64("bytes", s.BytesWritten).
		Msg("extraction finished")

	if extractOpts.MetricsFile != "" {
		if merr := m.WriteTextfile(extractOpts.MetricsFile); merr != nil {
			log.Error().Err(merr).Str("path", extractOpts.MetricsFile).Msg("failed to write metrics")
		}
	}

	return err
}

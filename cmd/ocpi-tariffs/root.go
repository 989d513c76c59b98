package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"ocpi-tariffs/internal/config"
)

// commonFlags are shared by every subcommand that ingests a CDR/Tariff
// pair: the two input sources and the IANA zone restrictions are
// evaluated in.
type commonFlags struct {
	cdrPath    string
	tariffPath string
	zone       string
	outputPath string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "ocpi-tariffs",
		Short: "Price OCPI charge detail records against a tariff",
	}

	root.AddCommand(newAnalyzeCmd(cfg))
	root.AddCommand(newValidateCmd(cfg))

	return root
}

func bindCommonFlags(cmd *cobra.Command, cfg *config.Config, f *commonFlags) {
	cmd.Flags().StringVarP(&f.cdrPath, "cdr", "c", "", "path to the CDR JSON document (stdin if omitted)")
	cmd.Flags().StringVarP(&f.tariffPath, "tariff", "t", "", "path to the Tariff JSON document (required unless the CDR embeds its own tariffs)")
	cmd.Flags().StringVarP(&f.zone, "zone", "z", cfg.DefaultZone, "IANA time zone to evaluate restrictions in")
	cmd.Flags().StringVarP(&f.outputPath, "output", "o", "", "path to write output to (stdout if omitted)")
}

// openOutputSink opens path for writing, or falls back to the
// command's configured stdout when path is empty.
func openOutputSink(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

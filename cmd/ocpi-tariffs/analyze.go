package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	tariffpricing "ocpi-tariffs"
	"ocpi-tariffs/internal/config"
)

// newAnalyzeCmd prices a CDR against a Tariff and prints the resulting
// Report as indented JSON. Human-invoice rendering is out of scope;
// this is a thin machine-readable dump for downstream tooling.
func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Price a CDR against a tariff and print the breakdown as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cdr, err := loadCdr(flags.cdrPath)
			if err != nil {
				return fmt.Errorf("loading cdr: %w", err)
			}

			zone, err := resolveZone(flags.zone)
			if err != nil {
				return err
			}

			var rep any
			if flags.tariffPath != "" {
				tariff, err := loadTariff(flags.tariffPath)
				if err != nil {
					return fmt.Errorf("loading tariff: %w", err)
				}
				rep, err = tariffpricing.Price(cdr, tariff, zone)
				if err != nil {
					return err
				}
			} else {
				rep, err = tariffpricing.PriceSession(cdr, zone)
				if err != nil {
					return err
				}
			}

			sink, closeSink, err := openOutputSink(cmd, flags.outputPath)
			if err != nil {
				return fmt.Errorf("opening output: %w", err)
			}
			defer closeSink()

			enc := json.NewEncoder(sink)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		},
	}

	bindCommonFlags(cmd, cfg, &flags)
	return cmd
}

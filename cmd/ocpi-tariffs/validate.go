package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	tariffpricing "ocpi-tariffs"
	"ocpi-tariffs/internal/config"
	"ocpi-tariffs/internal/report"
)

// toleranceForScale is the maximum acceptable absolute difference
// between a computed total and the CDR's own reported total, expressed
// in the currency's smallest unit at the given presentation scale
// (e.g. one cent at scale 2).
func toleranceForScale(scale int32) decimal.Decimal {
	return decimal.New(1, -scale)
}

// newValidateCmd prices a CDR and compares the result against the
// CDR's own self-reported total_cost, within a per-currency-scale
// tolerance, setting the process exit code on mismatch.
func newValidateCmd(cfg *config.Config) *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Compare a computed report against the CDR's self-reported totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cdr, err := loadCdr(flags.cdrPath)
			if err != nil {
				return fmt.Errorf("loading cdr: %w", err)
			}
			if cdr.TotalCost == nil {
				return fmt.Errorf("cdr %s carries no total_cost to validate against", cdr.ID)
			}

			zone, err := resolveZone(flags.zone)
			if err != nil {
				return err
			}

			var rep *report.Report
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

			tolerance := toleranceForScale(cfg.MoneyScale)
			diff := rep.TotalExclVAT.Decimal().Sub(cdr.TotalCost.ExclVat).Abs()
			if diff.GreaterThan(tolerance) {
				fmt.Fprintf(sink, "MISMATCH: computed %s, reported %s (diff %s > tolerance %s)\n",
					rep.TotalExclVAT.String(), cdr.TotalCost.ExclVat.String(), diff.String(), tolerance.String())
				cmd.SilenceUsage = true
				return errValidationMismatch
			}

			fmt.Fprintf(sink, "OK: computed %s matches reported %s within tolerance\n",
				rep.TotalExclVAT.String(), cdr.TotalCost.ExclVat.String())
			return nil
		},
	}

	bindCommonFlags(cmd, cfg, &flags)
	return cmd
}

var errValidationMismatch = fmt.Errorf("computed total does not match reported total")

package main

import (
	"fmt"
	"strings"

	"github.com/kyuwon/tradewind/internal/core"
	"github.com/spf13/cobra"
)

var evaluateCash float64

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [tickers...]",
	Short: "Grade tickers and size allocations",
	Long: `Grade each ticker S/A/F against the trend, valuation, growth and
momentum rules and print the suggested cash allocation per ticker.`,
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().Float64Var(&evaluateCash, "cash", 1_000_000, "total cash available for allocation")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	a, log, err := newApp()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	tickers, err := resolveTickers(args)
	if err != nil {
		return err
	}

	report, err := a.EvaluateAll(cmd.Context(), tickers, evaluateCash)
	if err != nil {
		return err
	}

	fmt.Println("=== TRADEWIND Evaluation ===")
	if report.VIX != nil {
		fmt.Printf("VIX: %.2f\n", *report.VIX)
	}
	fmt.Println()

	for _, res := range report.Results {
		fmt.Printf("%-8s %-5s alloc %12.2f", res.Ticker, res.Grade, report.Allocations[res.Ticker])
		if res.Demark != nil {
			fmt.Printf("  pivot %.2f (S %.2f / R %.2f)",
				res.Demark.Pivot, res.Demark.Support, res.Demark.Resistance)
		}
		fmt.Println()
		if len(res.Reasons) > 0 {
			fmt.Printf("         %s\n", strings.Join(res.Reasons, "; "))
		}
	}

	if report.ArchivePath != "" {
		fmt.Printf("\nReport archived at %s\n", report.ArchivePath)
	}

	var errored int
	for _, res := range report.Results {
		if res.Grade == core.GradeError {
			errored++
		}
	}
	if errored > 0 {
		fmt.Printf("\n%d ticker(s) failed to evaluate\n", errored)
	}
	return nil
}

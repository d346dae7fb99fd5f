package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backtestUseLLM bool

var backtestCmd = &cobra.Command{
	Use:   "backtest [tickers...]",
	Short: "Replay the trend strategy over historical prices",
	Long: `Replay each ticker's history through the moving-average entry/exit
rule and print the resulting ledger statistics.`,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().BoolVar(&backtestUseLLM, "llm", false, "size allocations via evaluation and LLM recommendation")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
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

	report, err := a.RunBacktest(cmd.Context(), tickers, backtestUseLLM)
	if err != nil {
		return err
	}
	s := report.Summary

	fmt.Println("=== TRADEWIND Backtest ===")
	fmt.Printf("Run:          %s\n", s.RunID)
	fmt.Printf("Start cash:   %.2f\n", s.StartCash)
	fmt.Printf("Final cash:   %.2f\n", s.FinalCash)
	fmt.Printf("Profit:       %.2f (%.2f%%)\n", s.TotalProfit, s.ReturnPct)
	fmt.Printf("Trades:       %d (%d round trips, %d wins)\n", s.TradeCount, s.PairCount, s.Wins)
	if s.WinRate != nil {
		fmt.Printf("Win rate:     %.1f%%\n", *s.WinRate*100)
	}
	if s.MaxDrawdownPct != nil {
		fmt.Printf("Max drawdown: %.2f%%\n", *s.MaxDrawdownPct)
	}

	if report.ArchivePath != "" {
		fmt.Printf("\nSummary archived at %s\n", report.ArchivePath)
	}
	return nil
}

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var sectorCmd = &cobra.Command{
	Use:   "sector [tickers...]",
	Short: "Show sector trend aggregation",
	Long:  "Group tickers by sector and print the mean trend level per group.",
	RunE:  runSector,
}

func init() {
	rootCmd.AddCommand(sectorCmd)
}

func runSector(cmd *cobra.Command, args []string) error {
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

	stats, err := a.SectorStats(cmd.Context(), tickers)
	if err != nil {
		return err
	}

	sectors := make([]string, 0, len(stats.SectorMeanMA))
	for sec := range stats.SectorMeanMA {
		sectors = append(sectors, sec)
	}
	sort.Strings(sectors)

	fmt.Println("=== TRADEWIND Sectors ===")
	for _, sec := range sectors {
		if m := stats.SectorMeanMA[sec]; m != nil {
			fmt.Printf("%-24s mean MA %10.2f\n", sec, *m)
		} else {
			fmt.Printf("%-24s mean MA        n/a\n", sec)
		}
		for t, s := range stats.TickerSector {
			if s != sec {
				continue
			}
			if ma := stats.TickerMA[t]; ma != nil {
				fmt.Printf("  %-8s %10.2f\n", t, *ma)
			} else {
				fmt.Printf("  %-8s        n/a\n", t)
			}
		}
	}
	if stats.OverallMean != nil {
		fmt.Printf("\nOverall mean MA: %.2f\n", *stats.OverallMean)
	}
	return nil
}

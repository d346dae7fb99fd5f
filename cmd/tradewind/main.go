package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/kyuwon/tradewind/internal/app"
	"github.com/kyuwon/tradewind/internal/config"
	"github.com/kyuwon/tradewind/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile     string
	debug       bool
	tickersFile string
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "tradewind",
	Short: "TRADEWIND - equity grading, allocation and backtest toolkit",
	Long: `TRADEWIND grades equity tickers against trend, valuation, growth and
momentum rules, sizes allocations from the grades (optionally refined by an
LLM), and replays the trend-following strategy over historical prices.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
	rootCmd.PersistentFlags().StringVar(&tickersFile, "tickers-file", "", "file with one ticker per line (or comma separated)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-listen", "", "address to expose Prometheus metrics on (e.g. :9090)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp loads config and builds the application.
func newApp() (*app.App, *zap.Logger, error) {
	log := logger.Must(debug)

	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.Metrics(), promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Error("metrics listener failed", zap.Error(err))
			}
		}()
		log.Info("metrics exposed", zap.String("addr", metricsAddr))
	}

	return a, log, nil
}

// resolveTickers merges positional args with the optional tickers file.
func resolveTickers(args []string) ([]string, error) {
	tickers := make([]string, 0, len(args))
	for _, a := range args {
		for _, t := range strings.Split(a, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, strings.ToUpper(t))
			}
		}
	}

	if tickersFile != "" {
		data, err := os.ReadFile(tickersFile)
		if err != nil {
			return nil, fmt.Errorf("reading tickers file: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			for _, t := range strings.Split(line, ",") {
				if t = strings.TrimSpace(t); t != "" {
					tickers = append(tickers, strings.ToUpper(t))
				}
			}
		}
	}

	return tickers, nil
}

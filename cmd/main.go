package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ticker-analyzer",
	Short: "A CLI for managing the ticker analyzer services",
	Long:  `Ticker Analyzer is a retail equity analysis service: indicator panels, composite scoring, market scans and strategy backtests.`,
}

func main() {

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}

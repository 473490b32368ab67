package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "drtdispatch",
	Short:        "Demand-responsive transport dispatch scheduler",
	Long:         "Runs an online insertion-heuristic scheduler over a fleet of demand-responsive vehicles.",
	SilenceUsage: true,
}

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a drtdispatch.yaml config file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(recomputeDistancesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "horacle",
	Short: "Vedic event prediction service",
	Long: `Horacle sweeps a date range against a birth chart and reports the
life events the dasha, transit, Jaimini and Nadi layers agree on.

Examples:
  horacle serve --config configs/config.yaml
  horacle predict --request request.json
  horacle enqueue --request request.json --transport queue`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "config file path (empty for defaults)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

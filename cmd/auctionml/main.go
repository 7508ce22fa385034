// Command auctionml trains and queries auction price models from the command
// line or serves them over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/auctionml/pkg/log"
)

var (
	configPath string
	logLevel   string
	modelName  string

	rootCmd = &cobra.Command{
		Use:           "auctionml",
		Short:         "Predictive modeling for diamond auctions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel == "" {
				return nil
			}
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&modelName, "model", "m", "linear", "model kind (linear, ensemble)")

	rootCmd.AddCommand(serveCmd, trainCmd, predictCmd, surfaceCmd, optimizeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

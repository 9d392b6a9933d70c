package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go-ml.dev/pkg/logp/internal/config"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:          "logp",
	Short:        "Train a logP regressor on Morgan fingerprints and export it to TFLite",
	SilenceUsage: true,
	Long: `logp reads a CSV of SMILES strings and logP labels, featurizes molecules
as Morgan fingerprints, trains a dense regressor and writes a TFLite model
for microcontroller inference. Without a sub-command it runs train.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML file overriding the default configuration")
	addTrainFlags(rootCmd)
}

// loadConfig returns defaults or the --config file.
func loadConfig() (config.Config, error) {
	if flagConfig == "" {
		return config.Default(), nil
	}
	return config.Load(flagConfig)
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

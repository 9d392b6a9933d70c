package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go-ml.dev/pkg/logp/internal/config"
	"go-ml.dev/pkg/logp/internal/pipeline"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Load the dataset, train the regressor and export the TFLite model",
	Long: `Runs the whole pipeline: featurize the CSV, split it into training and
validation parts, train for the configured epochs, save the model directory,
convert it to TFLite and write it into the artifacts directory.

Example:
  logp train --data Dataset/250k_rndm_zinc_drugs_clean_3.csv --int8`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

type trainFlags struct {
	data, artifacts string
	epochs, batch   int
	bits, radius    int
	seed            int64
	int8, header    bool
}

var flagTrain trainFlags

func init() {
	addTrainFlags(trainCmd)
	rootCmd.AddCommand(trainCmd)
}

func addTrainFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagTrain.data, "data", config.DefaultDataPath, "CSV file with smiles and logP columns")
	c.Flags().StringVar(&flagTrain.artifacts, "artifacts", config.DefaultArtifacts, "Output directory")
	c.Flags().IntVar(&flagTrain.epochs, "epochs", 20, "Training epochs")
	c.Flags().IntVar(&flagTrain.batch, "batch-size", 256, "Mini-batch size")
	c.Flags().IntVar(&flagTrain.bits, "bits", 2048, "Fingerprint length")
	c.Flags().IntVar(&flagTrain.radius, "radius", 2, "Fingerprint radius")
	c.Flags().Int64Var(&flagTrain.seed, "seed", 42, "Random seed")
	c.Flags().BoolVar(&flagTrain.int8, "int8", false, "Full integer quantization with int8 input and output")
	c.Flags().BoolVar(&flagTrain.header, "header", false, "Also write model_data.h for TFLite Micro")
}

// applyTrainFlags overrides cfg with flags given on the command line only.
func applyTrainFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("data") {
		cfg.DataPath = flagTrain.data
	}
	if f.Changed("artifacts") {
		cfg.Artifacts = flagTrain.artifacts
	}
	if f.Changed("epochs") {
		cfg.Epochs = flagTrain.epochs
	}
	if f.Changed("batch-size") {
		cfg.BatchSize = flagTrain.batch
	}
	if f.Changed("bits") {
		cfg.Bits = flagTrain.bits
	}
	if f.Changed("radius") {
		cfg.Radius = flagTrain.radius
	}
	if f.Changed("seed") {
		cfg.Seed = flagTrain.seed
	}
	if f.Changed("int8") {
		cfg.Int8 = flagTrain.int8
	}
	if f.Changed("header") {
		cfg.CHeader = flagTrain.header
	}
}

func runTrain(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyTrainFlags(cmd, &cfg)
	out := cmd.OutOrStdout()
	r, err := pipeline.Pipeline{
		Config:  cfg,
		Verbose: func(s string) { fmt.Fprintln(out, s) },
	}.Run()
	if err != nil {
		return err
	}
	if r.HeaderPath != "" {
		fmt.Fprintf(out, "Saved C header to: %s\n", r.HeaderPath)
	}
	fmt.Fprintf(out, "Saved TFLite model to: %s\n", r.TFLitePath)
	return nil
}

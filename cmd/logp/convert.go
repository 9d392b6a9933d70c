package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/logp/chem/morgan"
	"go-ml.dev/pkg/logp/dataset"
	"go-ml.dev/pkg/logp/export/tflite"
	"go-ml.dev/pkg/logp/internal/pipeline"
	"go-ml.dev/pkg/zorros/zorros"
)

var convertCmd = &cobra.Command{
	Use:   "convert <model-dir> <output.tflite>",
	Short: "Convert a saved model directory into a TFLite model",
	Long: `Converts a model directory written by train. Dynamic range quantization
is applied by default; with --int8 the CSV given by --data (or the config)
is featurized and its training split calibrates activation ranges.

Example:
  logp convert artifacts/logp_model artifacts/logp_model.tflite --int8`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

var (
	flagConvertInt8   bool
	flagConvertData   string
	flagConvertHeader string
)

func init() {
	convertCmd.Flags().BoolVar(&flagConvertInt8, "int8", false, "Full integer quantization with int8 input and output")
	convertCmd.Flags().StringVar(&flagConvertData, "data", "", "CSV with calibration molecules (int8 only)")
	convertCmd.Flags().StringVar(&flagConvertHeader, "header", "", "Also write the model as a C header to this path")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	conv, err := tflite.FromSavedModel(args[0])
	if err != nil {
		return err
	}
	cfg.Int8 = cfg.Int8 || flagConvertInt8
	if flagConvertData != "" {
		cfg.DataPath = flagConvertData
	}
	var train *dataset.Dataset
	if cfg.Int8 {
		width := conv.Network.Width()
		ds, err := dataset.Load(cfg.DataPath, width, morgan.Featurizer(cfg.Radius, width))
		if err != nil {
			return err
		}
		if train, _, err = dataset.Split(ds, cfg.TestSize, cfg.Seed); err != nil {
			return err
		}
	}
	pipeline.Configure(conv, cfg, train)
	buf, err := conv.Convert()
	if err != nil {
		return err
	}
	if err = iokit.File(args[1]).WriteAll(buf); err != nil {
		return zorros.Trace(err)
	}
	if flagConvertHeader != "" {
		if err = pipeline.WriteHeader(iokit.File(flagConvertHeader), buf); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved TFLite model to: %s\n", args[1])
	return nil
}

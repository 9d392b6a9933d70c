package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/logp/chem/morgan"
	"go-ml.dev/pkg/logp/export/tflite"
	"go-ml.dev/pkg/logp/fu"
	"go-ml.dev/pkg/zorros/zorros"
)

var predictCmd = &cobra.Command{
	Use:   "predict <model.tflite> <smiles>...",
	Short: "Predict logP of molecules with a TFLite model",
	Long: `Featurizes every SMILES with the fingerprint length of the model input
and runs the model the way the microcontroller skeleton does, int8 inputs
and outputs are quantized and dequantized with tensor parameters.

Example:
  logp predict artifacts/logp_model.tflite CCO c1ccccc1O`,
	Args: cobra.MinimumNArgs(2),
	RunE: runPredict,
}

var flagRadius int

func init() {
	predictCmd.Flags().IntVar(&flagRadius, "radius", morgan.DefaultRadius, "Fingerprint radius")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	buf, err := iokit.File(args[0]).ReadAll()
	if err != nil {
		return zorros.Trace(err)
	}
	in, err := tflite.NewInterpreter(buf)
	if err != nil {
		return err
	}
	width := in.Model.Input().Elements()
	out := cmd.OutOrStdout()
	var invalid []string
	for _, s := range args[1:] {
		fp, ok := morgan.Fingerprint(s, flagRadius, width)
		if !ok {
			invalid = append(invalid, s)
			continue
		}
		y, err := in.Predict(fu.Bytes2f(fp))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%.4f\n", s, y)
	}
	if len(invalid) > 0 {
		return zorros.Errorf("invalid SMILES: %s", strings.Join(lo.Uniq(invalid), " "))
	}
	return nil
}

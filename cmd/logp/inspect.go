package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go-ml.dev/pkg/iokit"
	"go-ml.dev/pkg/logp/export/tflite"
	"go-ml.dev/pkg/zorros/zorros"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <model.tflite>",
	Short: "Show tensors, quantization and operators of a TFLite model",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	buf, err := iokit.File(args[0]).ReadAll()
	if err != nil {
		return zorros.Trace(err)
	}
	s, err := tflite.Inspect(buf)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	s.Print(out)
	kinds := lo.Map(s.Kernels(), func(t tflite.TensorType, _ int) string { return t.String() })
	fmt.Fprintf(out, "element types: %s\n", strings.Join(kinds, ", "))
	return nil
}

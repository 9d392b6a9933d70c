package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go-ml.dev/pkg/logp/chem/morgan"
	"go-ml.dev/pkg/zorros/zorros"
)

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <smiles>...",
	Short: "Print set bits of Morgan fingerprints",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFingerprint,
}

var (
	flagFpBits   int
	flagFpRadius int
)

func init() {
	fingerprintCmd.Flags().IntVar(&flagFpBits, "bits", morgan.DefaultBits, "Fingerprint length")
	fingerprintCmd.Flags().IntVar(&flagFpRadius, "radius", morgan.DefaultRadius, "Fingerprint radius")
	rootCmd.AddCommand(fingerprintCmd)
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	if flagFpBits <= 0 {
		return zorros.Errorf("bits must be positive")
	}
	out := cmd.OutOrStdout()
	for _, s := range args {
		fp, ok := morgan.Fingerprint(s, flagFpRadius, flagFpBits)
		if !ok {
			return zorros.Errorf("invalid SMILES `%v`", s)
		}
		bits := lo.Map(morgan.OnBits(fp), func(i int, _ int) string { return fmt.Sprint(i) })
		fmt.Fprintf(out, "%s\t%d\t%s\n", s, len(bits), strings.Join(bits, ","))
	}
	return nil
}

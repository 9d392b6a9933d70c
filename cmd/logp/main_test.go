package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/assert"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func setup(t *testing.T) (cfgPath, artifacts string) {
	dir := t.TempDir()
	data := filepath.Join(dir, "mols.csv")
	rows := []string{"smiles,logP"}
	for i, s := range []string{"CCO", "c1ccccc1", "CCN", "CC(=O)O", "c1ccncc1", "CCCC", "OCCO", "c1ccccc1O", "CCCl", "C1CCCCC1"} {
		for j := 0; j < 4; j++ {
			rows = append(rows, fmt.Sprintf("%s%s,%.2f", s, strings.Repeat("C", j), float64(i)/3+float64(j)/2))
		}
	}
	rows = append(rows, "not a smiles,1.0")
	assert.NilError(t, os.WriteFile(data, []byte(strings.Join(rows, "\n")+"\n"), 0o644))
	artifacts = filepath.Join(dir, "artifacts")
	cfgPath = filepath.Join(dir, "logp.yaml")
	yml := fmt.Sprintf("data_path: %s\nartifacts: %s\nfingerprint_bits: 128\nhidden: [8]\nepochs: 2\nbatch_size: 8\n", data, artifacts)
	assert.NilError(t, os.WriteFile(cfgPath, []byte(yml), 0o644))
	return
}

func Test_Commands(t *testing.T) {
	cfg, artifacts := setup(t)
	tfl := filepath.Join(artifacts, "logp_model.tflite")

	out, err := execute(t, "train", "--config", cfg)
	assert.NilError(t, err)
	assert.Assert(t, strings.HasSuffix(out, "Saved TFLite model to: "+tfl+"\n"), out)
	assert.Assert(t, strings.Contains(out, "Epoch 2/2"))

	out, err = execute(t, "inspect", tfl)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(out, "operators: FULLY_CONNECTED+RELU, FULLY_CONNECTED"), out)
	assert.Assert(t, strings.Contains(out, "element types: float32"))

	out, err = execute(t, "predict", tfl, "CCO", "c1ccccc1")
	assert.NilError(t, err)
	assert.Equal(t, strings.Count(out, "\n"), 2)
	assert.Assert(t, strings.HasPrefix(out, "CCO\t"))
	_, err = execute(t, "predict", tfl, "C1CC(")
	assert.ErrorContains(t, err, "invalid SMILES")

	int8 := filepath.Join(artifacts, "int8.tflite")
	header := filepath.Join(artifacts, "model_data.h")
	out, err = execute(t, "convert", "--config", cfg, "--int8", "--header", header, filepath.Join(artifacts, "logp_model"), int8)
	assert.NilError(t, err)
	assert.Equal(t, out, "Saved TFLite model to: "+int8+"\n")
	out, err = execute(t, "inspect", int8)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(out, "input:  input"), out)
	assert.Assert(t, strings.Contains(out, " int8 "), out)
	_, err = os.Stat(header)
	assert.NilError(t, err)
	out, err = execute(t, "predict", int8, "CCO")
	assert.NilError(t, err)
	assert.Assert(t, strings.HasPrefix(out, "CCO\t"))

	out, err = execute(t, "fingerprint", "--bits", "64", "CCO")
	assert.NilError(t, err)
	assert.Assert(t, strings.HasPrefix(out, "CCO\t"))
	_, err = execute(t, "fingerprint", "C1CC(")
	assert.ErrorContains(t, err, "invalid SMILES")

	_, err = execute(t, "inspect", filepath.Join(artifacts, "logp_model", "model.yaml"))
	assert.ErrorContains(t, err, "not a TFLite model")
}

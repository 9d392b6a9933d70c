package tflite

import (
	"fmt"
	"github.com/samber/lo"
	"io"
	"strings"
)

/*
Summary is a human readable description of a converted model
*/
type Summary struct {
	Description string
	Version     uint32
	Size        int
	Input       Tensor
	Output      Tensor
	Operators   []string
	Tensors     []Tensor
	Constants   int // bytes of constant buffers
}

/*
Inspect decodes the flatbuffer into a Summary
*/
func Inspect(buf []byte) (*Summary, error) {
	m, err := Unmarshal(buf)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Description: m.Description,
		Version:     m.Version,
		Size:        len(buf),
		Input:       m.Input(),
		Output:      m.Output(),
		Operators: lo.Map(m.Operators, func(op Operator, _ int) string {
			s := m.Builtin(op).String()
			if op.Activation != ActNone {
				s += "+" + op.Activation.String()
			}
			return s
		}),
		Tensors:   m.Tensors,
		Constants: lo.SumBy(m.Buffers, func(b []byte) int { return len(b) }),
	}, nil
}

/*
Kernels returns distinct element types of all tensors
*/
func (s *Summary) Kernels() []TensorType {
	return lo.Uniq(lo.Map(s.Tensors, func(t Tensor, _ int) TensorType { return t.Type }))
}

/*
Quantized returns tensors having quantization parameters
*/
func (s *Summary) Quantized() []Tensor {
	return lo.Filter(s.Tensors, func(t Tensor, _ int) bool { return t.Quantization != nil })
}

func describe(t Tensor) string {
	shape := strings.Join(lo.Map(t.Shape, func(d int32, _ int) string { return fmt.Sprint(d) }), "x")
	s := fmt.Sprintf("%-40s %-8v %s", t.Name, t.Type, shape)
	if scale, zp := t.Quantization.params(); scale != 0 {
		s += fmt.Sprintf(" scale=%g zero_point=%d", scale, zp)
	}
	return s
}

/*
Print writes the summary as text
*/
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "description: %v\n", s.Description)
	fmt.Fprintf(w, "schema version: %d, %d bytes, %d bytes of constants\n", s.Version, s.Size, s.Constants)
	fmt.Fprintf(w, "input:  %s\n", describe(s.Input))
	fmt.Fprintf(w, "output: %s\n", describe(s.Output))
	fmt.Fprintf(w, "operators: %s\n", strings.Join(s.Operators, ", "))
	fmt.Fprintf(w, "tensors: %d (%d quantized)\n", len(s.Tensors), len(s.Quantized()))
	for i, t := range s.Tensors {
		fmt.Fprintf(w, "  %3d %s\n", i, describe(t))
	}
}

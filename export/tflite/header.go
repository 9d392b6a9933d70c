package tflite

import (
	"bufio"
	"fmt"
	"go-ml.dev/pkg/zorros/zorros"
	"io"
)

/*
WriteCHeader writes the model as a C array for TFLite Micro builds,
the array is named name and its length is name_len
*/
func WriteCHeader(w io.Writer, buf []byte, name string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "// generated by logp, do not edit\n#pragma once\n\n")
	fmt.Fprintf(bw, "alignas(16) const unsigned char %s[] = {\n", name)
	for i := 0; i < len(buf); i += 12 {
		bw.WriteString(" ")
		for _, b := range buf[i:min(i+12, len(buf))] {
			fmt.Fprintf(bw, " 0x%02x,", b)
		}
		bw.WriteString("\n")
	}
	fmt.Fprintf(bw, "};\nconst unsigned int %s_len = %d;\n", name, len(buf))
	if err := bw.Flush(); err != nil {
		return zorros.Trace(err)
	}
	return nil
}

// Package logx provides the CLI tools' log output indirection: a
// package-level writer destination and a thin Logf wrapper.
package logx

import (
	"fmt"
	"io"
	"os"
)

var writer io.Writer = os.Stdout

// SetWriter redirects log output. Passing nil restores stdout.
func SetWriter(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	writer = w
}

// Logf writes a formatted log line followed by a newline.
func Logf(format string, args ...interface{}) {
	fmt.Fprintf(writer, format+"\n", args...)
}

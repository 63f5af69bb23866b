// Package script turns user workflow scripts into workflow definitions.
//
// Loading is split in two stages. Transpile is pure: TypeScript or module
// JavaScript goes in, CommonJS comes out. A Unit then evaluates the compiled
// code in its own goja runtime where the only reachable symbols are the
// injected require, exports, module and console.
package script

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Compiled is the executable form of a script.
type Compiled struct {
	// Filename is the script file name, used for stack traces and log prefixes.
	Filename string
	// Code is CommonJS that expects require, exports and module in scope.
	Code string
}

// Diagnostic is one transpiler message.
type Diagnostic struct {
	File   string
	Line   int
	Column int
	Text   string
}

func (d Diagnostic) String() string {
	if d.Line == 0 {
		return fmt.Sprintf("%s: %s", d.File, d.Text)
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Text)
}

// TranspileError reports why a script could not be transpiled.
type TranspileError struct {
	Diagnostics []Diagnostic
}

func (e *TranspileError) Error() string {
	parts := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		parts[i] = d.String()
	}
	return strings.Join(parts, "; ")
}

// Transpile strips type annotations and rewrites import/export syntax to
// require/module.exports. The loader is chosen from the file extension.
func Transpile(filename string, source []byte) (*Compiled, error) {
	loader := api.LoaderJS
	if strings.EqualFold(filepath.Ext(filename), ".ts") {
		loader = api.LoaderTS
	}

	result := api.Transform(string(source), api.TransformOptions{
		Loader:     loader,
		Format:     api.FormatCommonJS,
		Target:     api.ES2017,
		Sourcefile: filename,
		LogLevel:   api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		diags := make([]Diagnostic, 0, len(result.Errors))
		for _, msg := range result.Errors {
			d := Diagnostic{File: filename, Text: msg.Text}
			if msg.Location != nil {
				d.Line = msg.Location.Line
				// esbuild columns are zero-based
				d.Column = msg.Location.Column + 1
			}
			diags = append(diags, d)
		}
		return nil, &TranspileError{Diagnostics: diags}
	}

	return &Compiled{Filename: filename, Code: string(result.Code)}, nil
}

package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/marl/lang/compiler"
	"github.com/mna/marl/lang/parser"
	"github.com/mna/marl/lang/scanner"
	"github.com/mna/marl/lang/token"
)

func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CompileFiles(stdio, args...)
}

// CompileFiles parses and compiles each of files in turn and prints the
// resulting disassembly.
func CompileFiles(stdio mainer.Stdio, files ...string) error {
	fset := token.NewFileSet()
	var errs scanner.ErrorList

	for _, name := range files {
		src, err := os.ReadFile(name)
		if err != nil {
			errs.Add(token.Position{Filename: name}, err.Error())
			continue
		}
		chunk, perr := parser.ParseFile(fset, name, src)
		if perr != nil {
			if list, ok := perr.(scanner.ErrorList); ok {
				errs = append(errs, list...)
			} else {
				errs.Add(token.Position{Filename: name}, perr.Error())
			}
			continue
		}

		file := fset.File(chunk.EOF)
		proto, cerr := compiler.CompileChunk(fset, file, chunk)
		if cerr != nil {
			errs.Add(token.Position{Filename: name}, cerr.Error())
			continue
		}

		fmt.Fprintf(stdio.Stdout, "-- %s --\n", name)
		fmt.Fprint(stdio.Stdout, compiler.Disassemble(proto))
	}

	if len(errs) == 0 {
		return nil
	}
	errs.Sort()
	scanner.PrintError(stdio.Stderr, errs.Err())
	return errs.Err()
}

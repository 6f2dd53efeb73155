package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/marl/lang/ast"
	"github.com/mna/marl/lang/parser"
	"github.com/mna/marl/lang/scanner"
	"github.com/mna/marl/lang/token"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(stdio, c.Pos, args...)
}

// ParseFiles parses each of files in turn and prints the resulting AST.
func ParseFiles(stdio mainer.Stdio, withPos bool, files ...string) error {
	fset := token.NewFileSet()
	printer := ast.Printer{Output: stdio.Stdout, Pos: withPos}
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
		if err := printer.Print(chunk, file); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}
	}

	if len(errs) == 0 {
		return nil
	}
	errs.Sort()
	scanner.PrintError(stdio.Stderr, errs.Err())
	return errs.Err()
}

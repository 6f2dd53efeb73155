package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/marl/lang/scanner"
	"github.com/mna/marl/lang/token"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFiles(stdio, args...)
}

// TokenizeFiles scans each of files in turn and prints one line per token.
func TokenizeFiles(stdio mainer.Stdio, files ...string) error {
	fset := token.NewFileSet()
	var errs scanner.ErrorList

	for _, name := range files {
		src, err := os.ReadFile(name)
		if err != nil {
			errs.Add(token.Position{Filename: name}, err.Error())
			continue
		}
		file := fset.AddFile(name, -1, len(src))
		sc := scanner.New(file, src)
		for {
			tok, pos, lit := sc.Scan()
			fmt.Fprintf(stdio.Stdout, "%s: %s", file.Position(pos), tok)
			if lit != "" {
				fmt.Fprintf(stdio.Stdout, " %s", lit)
			}
			fmt.Fprintln(stdio.Stdout)
			if tok == token.EOF {
				break
			}
		}
		errs = append(errs, sc.Errors()...)
	}

	if len(errs) == 0 {
		return nil
	}
	errs.Sort()
	scanner.PrintError(stdio.Stderr, errs.Err())
	return errs.Err()
}

// Package scanner implements a lexer for the marl language. It is adapted
// from the structure of the Go standard library's go/scanner package: a
// Scanner is initialized over a token.File and the full source bytes, and
// repeated calls to Scan return the next token, its position and (for
// tokens with a value) the literal text.
package scanner

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mna/marl/lang/token"
)

// PrintError prints err to w, one error per line, adapted from the standard
// library's go/scanner.PrintError: if err is an ErrorList, every entry is
// printed individually instead of the list's summarized Error() string.
func PrintError(w io.Writer, err error) {
	if list, ok := err.(ErrorList); ok {
		for _, e := range list {
			fmt.Fprintf(w, "%s\n", e)
		}
		return
	}
	fmt.Fprintf(w, "%s\n", err)
}

// Error is a single scanner (or parser) error associated with a position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return e.Msg
}

// ErrorList is a sortable list of *Error, adapted from go/scanner.ErrorList.
type ErrorList []*Error

func (p *ErrorList) Add(pos token.Position, msg string) {
	*p = append(*p, &Error{Pos: pos, Msg: msg})
}

func (p ErrorList) Len() int      { return len(p) }
func (p ErrorList) Swap(i, j int) { p[i], p[j] = p[j], p[i] }
func (p ErrorList) Less(i, j int) bool {
	a, b := p[i].Pos, p[j].Pos
	if a.Filename != b.Filename {
		return a.Filename < b.Filename
	}
	return a.Offset < b.Offset
}

// Sort sorts the error list by source position.
func (p ErrorList) Sort() { sort.Sort(p) }

func (p ErrorList) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (and %d more errors)", p[0], len(p)-1)
	return b.String()
}

// Err returns p as an error, or nil if p is empty.
func (p ErrorList) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

// Scanner tokenizes a single source file.
type Scanner struct {
	file   *token.File
	src    []byte
	errors ErrorList

	offset     int // current byte offset
	rdOffset   int // next byte offset to read
	ch         rune
}

// New creates a Scanner over src, recording line starts into file as it
// scans. file.Size() must equal len(src).
func New(file *token.File, src []byte) *Scanner {
	s := &Scanner{file: file, src: src}
	s.rdOffset = 0
	s.offset = 0
	s.next()
	return s
}

const eof = -1

func (s *Scanner) next() {
	if s.rdOffset < len(s.src) {
		s.offset = s.rdOffset
		r, w := rune(s.src[s.rdOffset]), 1
		if r >= utf8.RuneSelf {
			r, w = utf8.DecodeRune(s.src[s.rdOffset:])
		}
		s.rdOffset += w
		if r == '\n' {
			s.file.AddLine(s.rdOffset)
		}
		s.ch = r
	} else {
		s.offset = len(s.src)
		s.ch = eof
	}
}

func (s *Scanner) peek() byte {
	if s.rdOffset < len(s.src) {
		return s.src[s.rdOffset]
	}
	return 0
}

func (s *Scanner) errorf(offset int, format string, args ...interface{}) {
	s.errors.Add(s.file.Position(s.file.Pos(offset)), fmt.Sprintf(format, args...))
}

// Errors returns the accumulated scan errors, if any.
func (s *Scanner) Errors() ErrorList { return s.errors }

func isLetter(ch rune) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch >= utf8.RuneSelf
}
func isDigit(ch rune) bool { return '0' <= ch && ch <= '9' }

// Scan returns the next token, its starting position, and its literal text
// (for IDENT/INT/FLOAT/STRING tokens).
func (s *Scanner) Scan() (tok token.Token, pos token.Pos, lit string) {
	s.skipSpaceAndComments()

	offset := s.offset
	pos = s.file.Pos(offset)

	switch ch := s.ch; {
	case isLetter(ch):
		lit = s.scanIdentifier()
		tok = token.Lookup(lit)
	case isDigit(ch):
		tok, lit = s.scanNumber()
	default:
		s.next()
		switch ch {
		case eof:
			tok = token.EOF
		case '"', '\'':
			tok = token.STRING
			lit = s.scanString(byte(ch))
		case '+':
			tok = token.PLUS
		case '-':
			tok = token.MINUS
		case '*':
			tok = token.STAR
		case '/':
			if s.ch == '/' {
				s.next()
				tok = token.SLASHSLASH
			} else {
				tok = token.SLASH
			}
		case '%':
			tok = token.PERCENT
		case '^':
			tok = token.CARET
		case '#':
			tok = token.HASH
		case '&':
			tok = token.AMP
		case '~':
			if s.ch == '=' {
				s.next()
				tok = token.NEQ
			} else {
				tok = token.TILDE
			}
		case '|':
			tok = token.PIPE
		case '<':
			if s.ch == '<' {
				s.next()
				tok = token.LTLT
			} else if s.ch == '=' {
				s.next()
				tok = token.LE
			} else {
				tok = token.LT
			}
		case '>':
			if s.ch == '>' {
				s.next()
				tok = token.GTGT
			} else if s.ch == '=' {
				s.next()
				tok = token.GE
			} else {
				tok = token.GT
			}
		case '=':
			if s.ch == '=' {
				s.next()
				tok = token.EQL
			} else {
				tok = token.ASSIGN
			}
		case '(':
			tok = token.LPAREN
		case ')':
			tok = token.RPAREN
		case '{':
			tok = token.LBRACE
		case '}':
			tok = token.RBRACE
		case '[':
			tok = token.LBRACK
		case ']':
			tok = token.RBRACK
		case ':':
			if s.ch == ':' {
				s.next()
				tok = token.DBCOLON
			} else {
				tok = token.COLON
			}
		case ';':
			tok = token.SEMI
		case ',':
			tok = token.COMMA
		case '.':
			if s.ch == '.' {
				s.next()
				if s.ch == '.' {
					s.next()
					tok = token.ELLIPSIS
				} else {
					tok = token.CONCAT
				}
			} else if isDigit(s.ch) {
				s.offset = offset
				s.rdOffset = offset
				s.ch = '.'
				tok, lit = s.scanNumber()
			} else {
				tok = token.DOT
			}
		default:
			s.errorf(offset, "illegal character %#U", ch)
			tok = token.ILLEGAL
		}
	}
	return tok, pos, lit
}

func (s *Scanner) skipSpaceAndComments() {
	for {
		for s.ch == ' ' || s.ch == '\t' || s.ch == '\n' || s.ch == '\r' {
			s.next()
		}
		if s.ch == '-' && s.peek() == '-' {
			s.next()
			s.next()
			for s.ch != '\n' && s.ch != eof {
				s.next()
			}
			continue
		}
		break
	}
}

func (s *Scanner) scanIdentifier() string {
	start := s.offset
	for isLetter(s.ch) || isDigit(s.ch) {
		s.next()
	}
	return string(s.src[start:s.offset])
}

func (s *Scanner) scanNumber() (token.Token, string) {
	start := s.offset
	tok := token.INT
	for isDigit(s.ch) {
		s.next()
	}
	if s.ch == '.' {
		tok = token.FLOAT
		s.next()
		for isDigit(s.ch) {
			s.next()
		}
	}
	if s.ch == 'e' || s.ch == 'E' {
		tok = token.FLOAT
		s.next()
		if s.ch == '+' || s.ch == '-' {
			s.next()
		}
		for isDigit(s.ch) {
			s.next()
		}
	}
	return tok, string(s.src[start:s.offset])
}

// simpleEscapes maps an escape letter to the byte it produces.
var simpleEscapes = map[rune]byte{
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
	'\n': '\n',
}

// scanString decodes a single- or double-quoted string literal one rune at a
// time, writing the decoded value directly instead of re-wrapping the raw
// lexeme for strconv.Unquote: the raw text may itself contain the quote
// character escaped with a backslash, which a blind re-escape would corrupt.
func (s *Scanner) scanString(quote byte) string {
	start := s.offset
	var b strings.Builder
	for {
		if s.ch == eof || s.ch == '\n' {
			s.errorf(start, "unterminated string literal")
			break
		}
		if byte(s.ch) == quote {
			s.next()
			break
		}
		if s.ch == '\\' {
			s.next()
			if r, ok := simpleEscapes[s.ch]; ok {
				b.WriteByte(r)
				s.next()
				continue
			}
			if s.ch == eof {
				s.errorf(start, "unterminated string literal")
				break
			}
			s.errorf(s.offset, "invalid escape sequence '\\%c'", s.ch)
			b.WriteRune(s.ch)
			s.next()
			continue
		}
		b.WriteRune(s.ch)
		s.next()
	}
	return b.String()
}

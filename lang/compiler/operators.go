package compiler

import (
	"math"

	"github.com/mna/marl/lang/ast"
	"github.com/mna/marl/lang/opcode"
	"github.com/mna/marl/lang/token"
	"github.com/mna/marl/lang/value"
)

// binOpCategory groups binary operator tokens the way spec.md §6 does:
// Simple operators fold to a single arithmetic/bitwise opcode, Comparison
// operators expand to the fixed four-instruction boolean-materializing
// sequence, ShortCircuit operators defer their right operand, and Concat
// is permanently rejected (no concat opcode exists yet).
type binOpCategory uint8

const (
	catSimple binOpCategory = iota
	catComparison
	catShortCircuit
	catConcat
	catUnsupported
)

func categorizeBinOp(tok token.Token) binOpCategory {
	switch tok {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.SLASHSLASH,
		token.PERCENT, token.CARET, token.AMP, token.PIPE, token.TILDE,
		token.LTLT, token.GTGT:
		return catSimple
	case token.EQL, token.NEQ, token.LT, token.LE, token.GT, token.GE:
		return catComparison
	case token.AND, token.OR:
		return catShortCircuit
	case token.CONCAT:
		return catConcat
	default:
		return catUnsupported
	}
}

// simpleBinOpEntry is one entry of the simple-binary-operator table (spec.md
// §6): a constant-folding predicate and an opcode constructor, looked up by
// token.
type simpleBinOpEntry struct {
	fold func(a, b value.Value) (value.Value, bool)
	make func(dest opcode.RegisterIndex, left, right opcode.RK) opcode.Instruction
}

func numericBinOp(
	intOp func(a, b int64) int64,
	floatOp func(a, b float64) float64,
) func(a, b value.Value) (value.Value, bool) {
	return func(a, b value.Value) (value.Value, bool) {
		if a.Kind() == value.Int && b.Kind() == value.Int {
			return value.IntValue(intOp(a.Int(), b.Int())), true
		}
		af, aok := asFloat(a)
		bf, bok := asFloat(b)
		if !aok || !bok {
			return value.Value{}, false
		}
		return value.FloatValue(floatOp(af, bf)), true
	}
}

func floatOnlyBinOp(floatOp func(a, b float64) float64) func(a, b value.Value) (value.Value, bool) {
	return func(a, b value.Value) (value.Value, bool) {
		af, aok := asFloat(a)
		bf, bok := asFloat(b)
		if !aok || !bok {
			return value.Value{}, false
		}
		return value.FloatValue(floatOp(af, bf)), true
	}
}

func intOnlyBinOp(intOp func(a, b int64) int64) func(a, b value.Value) (value.Value, bool) {
	return func(a, b value.Value) (value.Value, bool) {
		if a.Kind() != value.Int || b.Kind() != value.Int {
			return value.Value{}, false
		}
		return value.IntValue(intOp(a.Int(), b.Int())), true
	}
}

func asFloat(v value.Value) (float64, bool) {
	switch v.Kind() {
	case value.Int:
		return float64(v.Int()), true
	case value.Float:
		return v.Float(), true
	default:
		return 0, false
	}
}

func floorDiv(a, b float64) float64 { return math.Floor(a / b) }

func floorMod(a, b float64) float64 {
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func intFloorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func intFloorMod(a, b int64) int64 {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

// intDivisionGuard declines to fold an integer `//` or `%` whose right
// operand is the constant zero, so the division-by-zero error is raised at
// run time by the emitted opcode instead of panicking the compiler.
func intDivisionGuard(fold func(a, b value.Value) (value.Value, bool)) func(a, b value.Value) (value.Value, bool) {
	return func(a, b value.Value) (value.Value, bool) {
		if b.Kind() == value.Int && b.Int() == 0 {
			return value.Value{}, false
		}
		return fold(a, b)
	}
}

var simpleBinOps = map[token.Token]simpleBinOpEntry{
	token.PLUS: {
		fold: numericBinOp(func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }),
		make: func(d opcode.RegisterIndex, l, r opcode.RK) opcode.Instruction { return opcode.NewAdd(d, l, r) },
	},
	token.MINUS: {
		fold: numericBinOp(func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }),
		make: func(d opcode.RegisterIndex, l, r opcode.RK) opcode.Instruction { return opcode.NewSub(d, l, r) },
	},
	token.STAR: {
		fold: numericBinOp(func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }),
		make: func(d opcode.RegisterIndex, l, r opcode.RK) opcode.Instruction { return opcode.NewMul(d, l, r) },
	},
	token.SLASH: {
		fold: floatOnlyBinOp(func(a, b float64) float64 { return a / b }),
		make: func(d opcode.RegisterIndex, l, r opcode.RK) opcode.Instruction { return opcode.NewDiv(d, l, r) },
	},
	token.SLASHSLASH: {
		fold: intDivisionGuard(numericBinOp(intFloorDiv, floorDiv)),
		make: func(d opcode.RegisterIndex, l, r opcode.RK) opcode.Instruction { return opcode.NewIDiv(d, l, r) },
	},
	token.PERCENT: {
		fold: intDivisionGuard(numericBinOp(intFloorMod, floorMod)),
		make: func(d opcode.RegisterIndex, l, r opcode.RK) opcode.Instruction { return opcode.NewMod(d, l, r) },
	},
	token.CARET: {
		fold: floatOnlyBinOp(math.Pow),
		make: func(d opcode.RegisterIndex, l, r opcode.RK) opcode.Instruction { return opcode.NewPow(d, l, r) },
	},
	token.AMP: {
		fold: intOnlyBinOp(func(a, b int64) int64 { return a & b }),
		make: func(d opcode.RegisterIndex, l, r opcode.RK) opcode.Instruction { return opcode.NewBAnd(d, l, r) },
	},
	token.PIPE: {
		fold: intOnlyBinOp(func(a, b int64) int64 { return a | b }),
		make: func(d opcode.RegisterIndex, l, r opcode.RK) opcode.Instruction { return opcode.NewBOr(d, l, r) },
	},
	token.TILDE: {
		fold: intOnlyBinOp(func(a, b int64) int64 { return a ^ b }),
		make: func(d opcode.RegisterIndex, l, r opcode.RK) opcode.Instruction { return opcode.NewBXor(d, l, r) },
	},
	token.LTLT: {
		fold: intOnlyBinOp(func(a, b int64) int64 { return a << uint(b) }),
		make: func(d opcode.RegisterIndex, l, r opcode.RK) opcode.Instruction { return opcode.NewShl(d, l, r) },
	},
	token.GTGT: {
		fold: intOnlyBinOp(func(a, b int64) int64 { return int64(uint64(a) >> uint(b)) }),
		make: func(d opcode.RegisterIndex, l, r opcode.RK) opcode.Instruction { return opcode.NewShr(d, l, r) },
	},
}

// comparisonEntry describes one comparison operator token: which base test
// it lowers to (Lt, Le, or Eq), whether its operands must be swapped
// (GT/GE are compiled as swapped LT/LE), and whether the materialized
// boolean must be inverted (NEQ is compiled as an inverted EQL).
type comparisonEntry struct {
	base   func(left, right opcode.RK, isTrue bool) opcode.Instruction
	swap   bool
	negate bool
	fold   func(a, b value.Value) (bool, bool) // returns (result, folded)
}

func numericCompare(cmp func(a, b float64) bool) func(a, b value.Value) (bool, bool) {
	return func(a, b value.Value) (bool, bool) {
		af, aok := asFloat(a)
		bf, bok := asFloat(b)
		if !aok || !bok {
			return false, false
		}
		return cmp(af, bf), true
	}
}

func equalFold(a, b value.Value) (bool, bool) {
	af, aIsNum := asFloat(a)
	bf, bIsNum := asFloat(b)
	if aIsNum && bIsNum {
		return af == bf, true
	}
	if a.Kind() != b.Kind() {
		return false, true
	}
	return a == b, true
}

var comparisonBinOps = map[token.Token]comparisonEntry{
	token.LT: {
		base: func(l, r opcode.RK, isTrue bool) opcode.Instruction { return opcode.NewLessThan(l, r, isTrue) },
		fold: numericCompare(func(a, b float64) bool { return a < b }),
	},
	token.LE: {
		base: func(l, r opcode.RK, isTrue bool) opcode.Instruction { return opcode.NewLessEqual(l, r, isTrue) },
		fold: numericCompare(func(a, b float64) bool { return a <= b }),
	},
	token.GT: {
		base: func(l, r opcode.RK, isTrue bool) opcode.Instruction { return opcode.NewLessThan(l, r, isTrue) },
		swap: true,
		fold: numericCompare(func(a, b float64) bool { return a > b }),
	},
	token.GE: {
		base: func(l, r opcode.RK, isTrue bool) opcode.Instruction { return opcode.NewLessEqual(l, r, isTrue) },
		swap: true,
		fold: numericCompare(func(a, b float64) bool { return a >= b }),
	},
	token.EQL: {
		base: func(l, r opcode.RK, isTrue bool) opcode.Instruction { return opcode.NewEqual(l, r, isTrue) },
		fold: equalFold,
	},
	token.NEQ: {
		base:   func(l, r opcode.RK, isTrue bool) opcode.Instruction { return opcode.NewEqual(l, r, isTrue) },
		negate: true,
		fold: func(a, b value.Value) (bool, bool) {
			eq, ok := equalFold(a, b)
			return !eq, ok
		},
	},
}

// unOpEntry is one entry of the unary-operator table (spec.md §6).
type unOpEntry struct {
	fold func(v value.Value) (value.Value, bool)
	make func(dest, src opcode.RegisterIndex) opcode.Instruction
}

var unaryOps = map[token.Token]unOpEntry{
	token.MINUS: {
		fold: func(v value.Value) (value.Value, bool) {
			switch v.Kind() {
			case value.Int:
				return value.IntValue(-v.Int()), true
			case value.Float:
				return value.FloatValue(-v.Float()), true
			default:
				return value.Value{}, false
			}
		},
		make: func(d, s opcode.RegisterIndex) opcode.Instruction { return opcode.NewNeg(d, s) },
	},
	token.TILDE: {
		fold: func(v value.Value) (value.Value, bool) {
			if v.Kind() != value.Int {
				return value.Value{}, false
			}
			return value.IntValue(^v.Int()), true
		},
		make: func(d, s opcode.RegisterIndex) opcode.Instruction { return opcode.NewBNot(d, s) },
	},
	token.NOT: {
		fold: func(v value.Value) (value.Value, bool) {
			return value.BoolValue(!v.Truthy()), true
		},
		make: func(d, s opcode.RegisterIndex) opcode.Instruction { return opcode.NewNot(d, s) },
	},
	token.HASH: {
		fold: func(v value.Value) (value.Value, bool) {
			if v.Kind() != value.Str {
				return value.Value{}, false
			}
			return value.IntValue(int64(v.Str().Len())), true
		},
		make: func(d, s opcode.RegisterIndex) opcode.Instruction { return opcode.NewLen(d, s) },
	},
}

// unaryOperator lowers a unary operator application, constant-folding when
// the operand is already a literal value that admits static evaluation.
func (c *Compiler) unaryOperator(op token.Token, pos token.Pos, expr exprDescriptor) (exprDescriptor, error) {
	entry, ok := unaryOps[op]
	if !ok {
		return nil, c.unsupportedAt(pos, "unsupported unary operator")
	}

	if v, isVal := expr.(valueExpr); isVal {
		if folded, ok := entry.fold(v.Value); ok {
			return valueExpr{Value: folded}, nil
		}
	}

	src, err := c.anyRegister(&expr)
	if err != nil {
		return nil, err
	}
	if _, _, err := c.dischargeOptional(expr, destDiscard); err != nil {
		return nil, err
	}
	dest, err := c.top().registers.allocate()
	if err != nil {
		return nil, err
	}
	c.emit(entry.make(dest, src))
	return registerExpr{Register: dest, Temporary: true}, nil
}

// binaryOperator lowers one step of an expression's operator chain:
// left <op> right, where right is still unevaluated AST (needed for
// short-circuit operators' lazy evaluation).
func (c *Compiler) binaryOperator(left exprDescriptor, op token.Token, pos token.Pos, rightAST *ast.Expression) (exprDescriptor, error) {
	switch categorizeBinOp(op) {
	case catSimple:
		entry, ok := simpleBinOps[op]
		if !ok {
			return nil, c.unsupportedAt(pos, "unsupported binary operator")
		}
		right, err := c.expression(rightAST)
		if err != nil {
			return nil, err
		}
		if lv, lok := left.(valueExpr); lok {
			if rv, rok := right.(valueExpr); rok {
				if folded, ok := entry.fold(lv.Value, rv.Value); ok {
					return valueExpr{Value: folded}, nil
				}
			}
		}
		leftRK, rightRK, err := c.makeBinOpArgs(&left, &right)
		if err != nil {
			return nil, err
		}
		dest, err := c.top().registers.allocate()
		if err != nil {
			return nil, err
		}
		c.emit(entry.make(dest, leftRK, rightRK))
		return registerExpr{Register: dest, Temporary: true}, nil

	case catComparison:
		entry, ok := comparisonBinOps[op]
		if !ok {
			return nil, c.unsupportedAt(pos, "unsupported binary operator")
		}
		right, err := c.expression(rightAST)
		if err != nil {
			return nil, err
		}
		if lv, lok := left.(valueExpr); lok {
			if rv, rok := right.(valueExpr); rok {
				if result, ok := entry.fold(lv.Value, rv.Value); ok {
					return valueExpr{Value: value.BoolValue(result)}, nil
				}
			}
		}
		leftRK, rightRK, err := c.makeBinOpArgs(&left, &right)
		if err != nil {
			return nil, err
		}
		if entry.swap {
			leftRK, rightRK = rightRK, leftRK
		}
		dest, err := c.top().registers.allocate()
		if err != nil {
			return nil, err
		}
		// entry.base(..., true) skips the following Jump when the comparison
		// is false, landing directly on the "comparison false" LoadBool; when
		// the comparison is true, the Jump is taken, landing past it on the
		// "comparison true" LoadBool. entry.negate flips which boolean each
		// path materializes (used for NEQ, compiled as an inverted EQL).
		c.emit(entry.base(leftRK, rightRK, true))
		c.emit(opcode.Jump{Offset: 1})
		c.emit(opcode.LoadBool{Dest: dest, Value: entry.negate, SkipNext: true})
		c.emit(opcode.LoadBool{Dest: dest, Value: !entry.negate, SkipNext: false})
		return registerExpr{Register: dest, Temporary: true}, nil

	case catShortCircuit:
		return shortCircuitExpr{Left: left, IsAnd: op == token.AND, Right: rightAST}, nil

	case catConcat:
		return nil, c.unsupportedAt(pos, "concat operator unsupported")

	default:
		return nil, c.unsupportedAt(pos, "unsupported binary operator")
	}
}

// makeBinOpArgs coerces left and right into register-or-constant operand
// form and frees any temporaries they held, per spec.md §4.4/§4.6's
// "discharge with None after coercion" pattern.
func (c *Compiler) makeBinOpArgs(left, right *exprDescriptor) (opcode.RK, opcode.RK, error) {
	leftRK, err := c.anyRegisterOrConstant(left)
	if err != nil {
		return opcode.RK{}, opcode.RK{}, err
	}
	rightRK, err := c.anyRegisterOrConstant(right)
	if err != nil {
		return opcode.RK{}, opcode.RK{}, err
	}
	c.discardAll(*left, *right)
	return leftRK, rightRK, nil
}

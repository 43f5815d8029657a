package hints

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/cairopack/casm"
)

// ErrMalformedHint is returned when a hint lacks an operand its kind needs
// or has an unknown kind.
var ErrMalformedHint = errors.New("malformed hint")

// PythonicHints holds the rendered hints of one pc, encoded as [pc, code].
type PythonicHints struct {
	_    struct{} `cbor:",toarray"`
	PC   int
	Code []string
}

// MarshalJSON encodes the pair form.
func (p PythonicHints) MarshalJSON() ([]byte, error) {
	code := p.Code
	if code == nil {
		code = []string{}
	}
	return json.Marshal([]any{p.PC, code})
}

// UnmarshalJSON decodes the pair form.
func (p *PythonicHints) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("hints: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("hints: expected [pc, code], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &p.PC); err != nil {
		return fmt.Errorf("hints: pc: %w", err)
	}
	if err := json.Unmarshal(pair[1], &p.Code); err != nil {
		return fmt.Errorf("hints: pc %d: %w", p.PC, err)
	}
	return nil
}

// Pythonic renders every projected hint.
func Pythonic(entries []PCHints) ([]PythonicHints, error) {
	out := make([]PythonicHints, 0, len(entries))
	for _, e := range entries {
		code := make([]string, 0, len(e.Hints))
		for _, h := range e.Hints {
			s, err := Render(h)
			if err != nil {
				return nil, fmt.Errorf("hints: pc %d: %w", e.PC, err)
			}
			code = append(code, s)
		}
		out = append(out, PythonicHints{PC: e.PC, Code: code})
	}
	return out, nil
}

// Render returns the Python-style text of h. The output depends only on h.
func Render(h casm.Hint) (string, error) {
	r := renderer{kind: h.Kind}
	var s string
	switch h.Kind {
	case casm.HintAllocSegment:
		s = fmt.Sprintf("memory%s = segments.add()", r.cell("dst", h.Dst))
	case casm.HintTestLessThan:
		s = fmt.Sprintf("memory%s = %s < %s", r.cell("dst", h.Dst), r.res("lhs", h.Lhs), r.res("rhs", h.Rhs))
	case casm.HintTestLessThanOrEqual:
		s = fmt.Sprintf("memory%s = %s <= %s", r.cell("dst", h.Dst), r.res("lhs", h.Lhs), r.res("rhs", h.Rhs))
	case casm.HintDivMod:
		s = fmt.Sprintf("(memory%s, memory%s) = divmod(%s, %s)",
			r.cell("quotient", h.Quotient), r.cell("remainder", h.Remainder), r.res("lhs", h.Lhs), r.res("rhs", h.Rhs))
	case casm.HintSquareRoot:
		s = fmt.Sprintf("import math\nmemory%s = math.isqrt(%s)", r.cell("dst", h.Dst), r.res("value", h.Value))
	case casm.HintLinearSplit:
		s = strings.Join([]string{
			fmt.Sprintf("(value, scalar) = (%s, %s)", r.res("value", h.Value), r.res("scalar", h.Scalar)),
			fmt.Sprintf("x = min(value // scalar, %s)", r.res("max_x", h.MaxX)),
			"y = value - x * scalar",
			fmt.Sprintf("memory%s = x", r.cell("x", h.X)),
			fmt.Sprintf("memory%s = y", r.cell("y", h.Y)),
		}, "\n")
	case casm.HintAllocConstantSize:
		s = strings.Join([]string{
			"if '__boxed_segment' not in globals():",
			"    __boxed_segment = segments.add()",
			fmt.Sprintf("memory%s = __boxed_segment", r.cell("dst", h.Dst)),
			fmt.Sprintf("__boxed_segment += %s", r.res("size", h.Size)),
		}, "\n")
	case casm.HintSystemCall:
		s = fmt.Sprintf("syscall_handler.syscall(syscall_ptr=%s)", r.res("system", h.System))
	case casm.HintDebugPrint:
		s = strings.Join([]string{
			fmt.Sprintf("curr = %s", r.res("start", h.Start)),
			fmt.Sprintf("end = %s", r.res("end", h.End)),
			"while curr != end:",
			"    print(hex(memory[curr]))",
			"    curr += 1",
		}, "\n")
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrMalformedHint, h.Kind)
	}
	if r.err != nil {
		return "", r.err
	}
	return s, nil
}

// renderer formats operands and remembers the first missing one.
type renderer struct {
	kind casm.HintKind
	err  error
}

func (r *renderer) missing(field string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s without %s", ErrMalformedHint, r.kind, field)
	}
}

func (r *renderer) cell(field string, c *casm.CellRef) string {
	if c == nil {
		r.missing(field)
		return ""
	}
	return c.String()
}

func (r *renderer) res(field string, op *casm.ResOperand) string {
	switch {
	case op == nil:
	case op.Deref != nil:
		return "memory" + op.Deref.String()
	case op.DoubleDeref != nil:
		return fmt.Sprintf("memory[memory%s + %d]", op.DoubleDeref.Cell, op.DoubleDeref.Offset)
	case op.Immediate != nil:
		return op.Immediate.String()
	case op.BinOp != nil:
		b := op.BinOp
		var rhs string
		switch {
		case b.B.Deref != nil:
			rhs = "memory" + b.B.Deref.String()
		case b.B.Immediate != nil:
			rhs = b.B.Immediate.String()
		default:
			r.missing(field + ".b")
		}
		return fmt.Sprintf("memory%s %s %s", b.A, b.Op.Symbol(), rhs)
	}
	r.missing(field)
	return ""
}

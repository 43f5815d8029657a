// Package felt holds the field arithmetic used to finalize bytecode: the
// Stark prime, reduction of signed assembler words into the field, and a
// value type that serializes the way downstream loaders expect (lowercase
// 0x-prefixed hex in JSON, a CBOR bignum in binary form).
package felt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Prime is the field modulus, 2^251 + 17*2^192 + 1.
var Prime = mustParse("0x800000000000011000000000000000000000000000000000000000000000001")

func mustParse(s string) *big.Int {
	n, err := ParseBig(s)
	if err != nil {
		panic(fmt.Sprintf("felt: bad constant %q: %v", s, err))
	}
	return n
}

// ParseBig parses a 0x-prefixed hex or a decimal integer, optionally signed.
func ParseBig(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	if s == "" || s[0] == '-' || s[0] == '+' {
		return nil, fmt.Errorf("felt: invalid integer %q", s)
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("felt: invalid integer %q", s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

// Reduce maps a signed integer into [0, p). The magnitude is reduced first;
// a negative input with a non-zero remainder r becomes p - r.
func Reduce(x, p *big.Int) *big.Int {
	r := new(big.Int).Abs(x)
	r.Mod(r, p)
	if x.Sign() < 0 && r.Sign() != 0 {
		r.Sub(p, r)
	}
	return r
}

// Felt is an immutable field element. The zero value is 0.
type Felt struct {
	n *big.Int
}

// FromBig reduces x into the field.
func FromBig(x *big.Int) Felt {
	return Felt{n: Reduce(x, Prime)}
}

// FromUint64 returns v as a field element.
func FromUint64(v uint64) Felt {
	return Felt{n: new(big.Int).SetUint64(v)}
}

// FromHex parses a hex or decimal string and reduces it into the field.
func FromHex(s string) (Felt, error) {
	n, err := ParseBig(s)
	if err != nil {
		return Felt{}, err
	}
	return FromBig(n), nil
}

// Big returns a copy of the underlying integer.
func (f Felt) Big() *big.Int {
	if f.n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(f.n)
}

// Equal reports whether f and g are the same element.
func (f Felt) Equal(g Felt) bool {
	return f.Big().Cmp(g.Big()) == 0
}

// Hex renders f as lowercase 0x-prefixed hex.
func (f Felt) Hex() string {
	return "0x" + f.Big().Text(16)
}

func (f Felt) String() string {
	return f.Hex()
}

// MarshalJSON encodes f as a quoted hex string.
func (f Felt) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Hex())
}

// UnmarshalJSON accepts a quoted hex/decimal string or a bare JSON number.
func (f *Felt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("felt: %w", err)
		}
	} else {
		s = string(data)
	}
	v, err := FromHex(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// MarshalCBOR encodes f as a CBOR integer or bignum.
func (f Felt) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(f.Big())
}

// UnmarshalCBOR decodes a CBOR integer or bignum and reduces it.
func (f *Felt) UnmarshalCBOR(data []byte) error {
	var n big.Int
	if err := cbor.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("felt: unmarshal cbor: %w", err)
	}
	*f = FromBig(&n)
	return nil
}

// ReduceAll reduces every word into the field.
func ReduceAll(words []*big.Int) []Felt {
	out := make([]Felt, len(words))
	for i, w := range words {
		out[i] = FromBig(w)
	}
	return out
}

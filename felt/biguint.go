package felt

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// BigUint is a non-negative integer that is not reduced into the field,
// such as the prime itself. It serializes like Felt.
type BigUint struct {
	n *big.Int
}

// NewBigUint copies x, which must not be negative.
func NewBigUint(x *big.Int) BigUint {
	if x.Sign() < 0 {
		panic(fmt.Sprintf("felt: negative BigUint %s", x))
	}
	return BigUint{n: new(big.Int).Set(x)}
}

// Big returns a copy of the value.
func (u BigUint) Big() *big.Int {
	if u.n == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(u.n)
}

// Hex renders u as lowercase 0x-prefixed hex.
func (u BigUint) Hex() string {
	return "0x" + u.Big().Text(16)
}

func (u BigUint) String() string {
	return u.Hex()
}

// MarshalJSON encodes u as a quoted hex string.
func (u BigUint) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Hex())
}

// UnmarshalJSON decodes a quoted hex or decimal string.
func (u *BigUint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("felt: %w", err)
	}
	n, err := ParseBig(s)
	if err != nil {
		return err
	}
	if n.Sign() < 0 {
		return fmt.Errorf("felt: negative value %s", s)
	}
	u.n = n
	return nil
}

// MarshalCBOR encodes u as a CBOR integer or bignum.
func (u BigUint) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(u.Big())
}

// UnmarshalCBOR decodes a non-negative CBOR integer or bignum.
func (u *BigUint) UnmarshalCBOR(data []byte) error {
	var n big.Int
	if err := cbor.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("felt: unmarshal cbor: %w", err)
	}
	if n.Sign() < 0 {
		return fmt.Errorf("felt: negative value %s", n.String())
	}
	u.n = &n
	return nil
}

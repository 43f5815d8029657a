package sierra

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
)

// GenericArg is one argument of a generic type constructor. The set of
// implementations is closed: TypeArg, UserTypeArg, ValueArg and OpaqueArg.
type GenericArg interface {
	genericArg()
}

// TypeArg references another row of the type table.
type TypeArg struct {
	Type ConcreteTypeID
}

// UserTypeArg carries the identity of a user-declared struct or enum.
type UserTypeArg struct {
	UserType UserTypeID
}

// ValueArg is a numeric constant argument.
type ValueArg struct {
	Value *big.Int
}

// OpaqueArg covers function, libfunc, const and impl ids. The packaging step
// never interprets them; the raw JSON is kept so they round-trip.
type OpaqueArg struct {
	Kind string
	Raw  json.RawMessage
}

func (TypeArg) genericArg()     {}
func (UserTypeArg) genericArg() {}
func (ValueArg) genericArg()    {}
func (OpaqueArg) genericArg()   {}

func (a TypeArg) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"Type": a.Type})
}

func (a UserTypeArg) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"UserType": a.UserType})
}

func (a ValueArg) MarshalJSON() ([]byte, error) {
	v := a.Value
	if v == nil {
		v = new(big.Int)
	}
	return json.Marshal(map[string]any{"Value": v})
}

func (a OpaqueArg) MarshalJSON() ([]byte, error) {
	raw := a.Raw
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	return json.Marshal(map[string]json.RawMessage{a.Kind: raw})
}

// GenericArgs is an ordered argument list with an externally tagged JSON
// form: [{"Type": {...}}, {"UserType": {...}}, {"Value": 3}].
type GenericArgs []GenericArg

// UnmarshalJSON decodes the tagged form.
func (g *GenericArgs) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("sierra: generic args: %w", err)
	}
	out := make(GenericArgs, 0, len(raws))
	for i, raw := range raws {
		arg, err := decodeGenericArg(raw)
		if err != nil {
			return fmt.Errorf("sierra: generic arg %d: %w", i, err)
		}
		out = append(out, arg)
	}
	*g = out
	return nil
}

func decodeGenericArg(raw json.RawMessage) (GenericArg, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return nil, err
	}
	if len(tagged) != 1 {
		keys := make([]string, 0, len(tagged))
		for k := range tagged {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("expected exactly one tag, got %v", keys)
	}
	for kind, body := range tagged {
		switch kind {
		case "Type":
			var id ConcreteTypeID
			if err := json.Unmarshal(body, &id); err != nil {
				return nil, err
			}
			return TypeArg{Type: id}, nil
		case "UserType":
			var id UserTypeID
			if err := json.Unmarshal(body, &id); err != nil {
				return nil, err
			}
			return UserTypeArg{UserType: id}, nil
		case "Value":
			v := new(big.Int)
			if err := json.Unmarshal(body, v); err != nil {
				return nil, err
			}
			return ValueArg{Value: v}, nil
		default:
			return OpaqueArg{Kind: kind, Raw: append(json.RawMessage(nil), body...)}, nil
		}
	}
	panic("unreachable")
}

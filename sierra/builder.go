package sierra

import "github.com/chazu/cairopack/felt"

// TableBuilder assembles a dense type table row by row. It is mainly used to
// construct programs in tests and fixtures.
type TableBuilder struct {
	decls     []TypeDeclaration
	userTypes uint64
	felt252   *ConcreteTypeID
}

// NewTableBuilder returns an empty builder.
func NewTableBuilder() *TableBuilder {
	return &TableBuilder{}
}

// Declare appends a row and returns its id.
func (b *TableBuilder) Declare(g GenericTypeID, debugName string, args ...GenericArg) ConcreteTypeID {
	id := ConcreteTypeID{ID: uint64(len(b.decls)), DebugName: debugName}
	b.decls = append(b.decls, TypeDeclaration{
		ID:     id,
		LongID: ConcreteTypeLongID{GenericID: g, GenericArgs: GenericArgs(args)},
	})
	return id
}

func (b *TableBuilder) userType(name string) GenericArg {
	b.userTypes++
	return UserTypeArg{UserType: UserTypeID{ID: felt.FromUint64(b.userTypes), DebugName: name}}
}

// Felt252 returns the felt252 row, declaring it on first use.
func (b *TableBuilder) Felt252() ConcreteTypeID {
	if b.felt252 == nil {
		id := b.Declare(Felt252Type, "felt252")
		b.felt252 = &id
	}
	return *b.felt252
}

// Builtin declares a builtin type whose debug name is its generic id.
func (b *TableBuilder) Builtin(g GenericTypeID) ConcreteTypeID {
	return b.Declare(g, string(g))
}

// Array declares Array<elem>.
func (b *TableBuilder) Array(elem ConcreteTypeID) ConcreteTypeID {
	return b.Declare(ArrayType, "Array<"+elem.String()+">", TypeArg{Type: elem})
}

// Snapshot declares @inner.
func (b *TableBuilder) Snapshot(inner ConcreteTypeID) ConcreteTypeID {
	return b.Declare(SnapshotType, "Snapshot<"+inner.String()+">", TypeArg{Type: inner})
}

// Struct declares a struct with the given field types.
func (b *TableBuilder) Struct(name string, fields ...ConcreteTypeID) ConcreteTypeID {
	args := []GenericArg{b.userType(name)}
	for _, f := range fields {
		args = append(args, TypeArg{Type: f})
	}
	return b.Declare(StructType, name, args...)
}

// Enum declares an enum with the given variant types.
func (b *TableBuilder) Enum(name string, variants ...ConcreteTypeID) ConcreteTypeID {
	args := []GenericArg{b.userType(name)}
	for _, v := range variants {
		args = append(args, TypeArg{Type: v})
	}
	return b.Declare(EnumType, name, args...)
}

// FeltArray declares Array<felt252>.
func (b *TableBuilder) FeltArray() ConcreteTypeID {
	return b.Array(b.Felt252())
}

// FeltSpan declares Span<felt252>.
func (b *TableBuilder) FeltSpan() ConcreteTypeID {
	return b.Struct("core::array::Span::<felt252>", b.Snapshot(b.FeltArray()))
}

// EntryPointResult declares Result<(Span<felt252>,), (panic, Span<felt252>)>.
func (b *TableBuilder) EntryPointResult() ConcreteTypeID {
	ok := b.Struct("Tuple<Span<felt252>>", b.FeltSpan())
	panicTy := b.Struct("core::panics::Panic")
	errTy := b.Struct("Tuple<Panic, Span<felt252>>", panicTy, b.FeltSpan())
	return b.Enum("core::panics::PanicResult", ok, errTy)
}

// Declarations returns the rows declared so far.
func (b *TableBuilder) Declarations() []TypeDeclaration {
	return append([]TypeDeclaration(nil), b.decls...)
}

// Resolver returns a resolver over the rows declared so far. The builder
// only produces dense, closed tables, so validation cannot fail.
func (b *TableBuilder) Resolver() *TypeResolver {
	r, err := NewTypeResolver(b.Declarations())
	if err != nil {
		panic(err)
	}
	return r
}

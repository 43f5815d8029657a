package sierra

import (
	"errors"
	"testing"
)

func TestFeltArrayAndSpan(t *testing.T) {
	b := NewTableBuilder()
	arr := b.FeltArray()
	snap := b.Snapshot(arr)
	span := b.Struct("core::array::Span::<felt252>", snap)
	u32 := b.Declare("u32", "u32")
	u32Arr := b.Array(u32)
	r := b.Resolver()

	if !r.IsFelt252Array(arr) {
		t.Error("Array<felt252> should be a felt array")
	}
	if r.IsFelt252Span(arr) {
		t.Error("Array<felt252> should not be a span")
	}
	if !r.IsFelt252ArraySnapshot(snap) {
		t.Error("@Array<felt252> should be a felt array snapshot")
	}
	if r.IsFelt252ArraySnapshot(arr) {
		t.Error("Array<felt252> is not a snapshot")
	}
	if !r.IsFelt252Span(span) {
		t.Error("Span<felt252> should be a span")
	}
	if r.IsFelt252Array(span) {
		t.Error("Span<felt252> is not an array")
	}
	if r.IsFelt252Array(u32Arr) {
		t.Error("Array<u32> is not a felt array")
	}
}

func TestSpanRequiresUserTypeSlot(t *testing.T) {
	b := NewTableBuilder()
	snap := b.Snapshot(b.FeltArray())
	bare := b.Declare(StructType, "bare", TypeArg{Type: snap})
	twoField := b.Struct("pair", snap, snap)
	r := b.Resolver()

	if r.IsFelt252Span(bare) {
		t.Error("struct without a UserType slot should not be a span")
	}
	if r.IsFelt252Span(twoField) {
		t.Error("two-field struct should not be a span")
	}
}

func TestExtractResultTy(t *testing.T) {
	b := NewTableBuilder()
	okTy := b.Struct("ok", b.FeltSpan())
	errTy := b.FeltArray()
	result := b.Enum("Result", okTy, errTy)
	three := b.Enum("Three", okTy, errTy, errTy)
	r := b.Resolver()

	gotOk, gotErr, ok := r.ExtractResultTy(result)
	if !ok {
		t.Fatal("two-variant enum should extract")
	}
	if gotOk != okTy || gotErr != errTy {
		t.Errorf("ExtractResultTy = (%v, %v), want (%v, %v)", gotOk, gotErr, okTy, errTy)
	}
	if _, _, ok := r.ExtractResultTy(three); ok {
		t.Error("three-variant enum should not extract")
	}
	if _, _, ok := r.ExtractResultTy(okTy); ok {
		t.Error("struct should not extract as a result")
	}
}

func TestExtractStructs(t *testing.T) {
	b := NewTableBuilder()
	f := b.Felt252()
	one := b.Struct("one", f)
	two := b.Struct("two", f, one)
	enum := b.Enum("e", f, one)
	r := b.Resolver()

	if got, ok := r.ExtractStruct1(one); !ok || got != f {
		t.Errorf("ExtractStruct1(one) = %v, %v", got, ok)
	}
	if _, ok := r.ExtractStruct1(two); ok {
		t.Error("ExtractStruct1 should reject two fields")
	}
	if a, c, ok := r.ExtractStruct2(two); !ok || a != f || c != one {
		t.Errorf("ExtractStruct2(two) = %v, %v, %v", a, c, ok)
	}
	if _, _, ok := r.ExtractStruct2(one); ok {
		t.Error("ExtractStruct2 should reject one field")
	}
	if _, _, ok := r.ExtractStruct2(enum); ok {
		t.Error("ExtractStruct2 should reject enums")
	}
}

func TestReturnTypeIssue(t *testing.T) {
	b := NewTableBuilder()
	span := b.FeltSpan()
	okTuple := b.Struct("(Span,)", span)
	panicTy := b.Struct("Panic")

	current := b.EntryPointResult()
	legacy := b.Enum("legacy", okTuple, b.FeltArray())
	plainStruct := b.Struct("pair", okTuple, panicTy)
	okNotTuple := b.Enum("r1", b.FeltArray(), b.FeltArray())
	okNotSpan := b.Enum("r2", b.Struct("(felt,)", b.Felt252()), b.FeltArray())
	errScalar := b.Enum("r3", okTuple, b.Felt252())
	errDataArray := b.Enum("r4", okTuple, b.Struct("(Panic, Array)", panicTy, b.FeltArray()))
	r := b.Resolver()

	cases := []struct {
		name string
		ty   ConcreteTypeID
		want ReturnShape
	}{
		{"current convention", current, ReturnValid},
		{"legacy convention", legacy, ReturnValid},
		{"plain struct", plainStruct, ReturnNotResult},
		{"ok not tuple", okNotTuple, ReturnOkNotTuple},
		{"ok not span", okNotSpan, ReturnOkNotSpan},
		{"err scalar", errScalar, ReturnErrNotPanicData},
		{"err data array", errDataArray, ReturnErrDataNotSpan},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.ReturnTypeIssue(tc.ty); got != tc.want {
				t.Errorf("ReturnTypeIssue = %v, want %v", got, tc.want)
			}
			if got := r.IsValidEntryPointReturnType(tc.ty); got != (tc.want == ReturnValid) {
				t.Errorf("IsValidEntryPointReturnType = %v", got)
			}
		})
	}
}

func TestNewTypeResolverValidates(t *testing.T) {
	decls := []TypeDeclaration{
		{ID: ConcreteTypeID{ID: 0}, LongID: ConcreteTypeLongID{GenericID: ArrayType, GenericArgs: GenericArgs{TypeArg{Type: ConcreteTypeID{ID: 5}}}}},
	}
	if _, err := NewTypeResolver(decls); !errors.Is(err, ErrUnknownType) {
		t.Errorf("dangling reference: err = %v, want ErrUnknownType", err)
	}

	sparse := []TypeDeclaration{
		{ID: ConcreteTypeID{ID: 1}, LongID: ConcreteTypeLongID{GenericID: Felt252Type}},
	}
	if _, err := NewTypeResolver(sparse); err == nil {
		t.Error("sparse table should be rejected")
	}
}

func TestCheckIDsAndDebugName(t *testing.T) {
	b := NewTableBuilder()
	rc := b.Builtin(RangeCheckType)
	r := b.Resolver()

	if err := r.CheckIDs(rc); err != nil {
		t.Errorf("CheckIDs(rc) = %v", err)
	}
	if err := r.CheckIDs(rc, ConcreteTypeID{ID: 99}); !errors.Is(err, ErrUnknownType) {
		t.Errorf("CheckIDs(99) = %v, want ErrUnknownType", err)
	}
	if got := r.DebugName(ConcreteTypeID{ID: rc.ID}); got != "RangeCheck" {
		t.Errorf("DebugName fallback = %q, want RangeCheck", got)
	}
	if got := r.DebugName(ConcreteTypeID{ID: rc.ID, DebugName: "RC"}); got != "RC" {
		t.Errorf("DebugName = %q, want RC", got)
	}
}

func TestResolverIsReadOnly(t *testing.T) {
	b := NewTableBuilder()
	result := b.EntryPointResult()
	decls := b.Declarations()
	r, err := NewTypeResolver(decls)
	if err != nil {
		t.Fatal(err)
	}
	before := len(decls)
	for i := 0; i < 3; i++ {
		if !r.IsValidEntryPointReturnType(result) {
			t.Fatal("result should stay valid across calls")
		}
	}
	if len(decls) != before {
		t.Error("resolver changed the table")
	}
}

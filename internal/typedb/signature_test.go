package typedb

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the type signature parser:
// - Primitives resolve without touching the registry
// - Bare identifiers become Unknown symbol references
// - Nested generics keep their structure and collect every reference
// - Unions raise IsOptional when any alternative is optional or nil
// - Array suffixes, grouping parens and table literals
// - Function types collect interior references only
// - Malformed generics degrade to the container kind with a diagnostic
// - Literals and generic type parameters
// - extractType stops at the first top-level space not joined by | , :

func newTestBuild() *build {
	return newBuild(Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
}

func parseSig(b *build, raw string) *TypeSignature {
	return b.sigs.parse(raw, sigContext{file: 0, line: 1})
}

func TestSignature_Primitive(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	for _, raw := range []string{"integer", "string", "boolean", "void", "any", "nil", "number", "FString"} {
		sig := parseSig(b, raw)
		assert.Equal(t, SigPrimitive, sig.Kind, raw)
		assert.Empty(t, sig.Refs, raw)
		assert.NotNil(t, sig.Refs, raw)
	}
	assert.Empty(t, b.reg.symbols)
}

func TestSignature_ExtraPrimitives(t *testing.T) {
	t.Parallel()

	b := newBuild(Options{
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		ExtraPrimitives: []string{"FVector"},
	})
	sig := parseSig(b, "FVector")
	assert.Equal(t, SigPrimitive, sig.Kind)
	assert.Empty(t, b.reg.symbols)
}

func TestSignature_SymbolReference(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	sig := parseSig(b, "UObject")

	require.Equal(t, SigSymbol, sig.Kind)
	require.NotNil(t, sig.SymbolID)
	sym := b.reg.symbols[*sig.SymbolID]
	assert.Equal(t, "UObject", sym.Name)
	assert.Equal(t, KindUnknown, sym.Kind)
	assert.Equal(t, map[string]int{"UObject": sym.ID}, sig.Refs)

	// A second mention resolves to the same placeholder.
	again := parseSig(b, "UObject")
	assert.Equal(t, *sig.SymbolID, *again.SymbolID)
	assert.Len(t, b.reg.symbols, 1)
}

func TestSignature_NestedGeneric(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	sig := parseSig(b, "Map<Array<Foo>, Bar>")

	require.Equal(t, SigMap, sig.Kind)
	require.Len(t, sig.Parts, 2)

	arr := sig.Parts[0]
	assert.Equal(t, SigArray, arr.Kind)
	require.Len(t, arr.Parts, 1)
	assert.Equal(t, SigSymbol, arr.Parts[0].Kind)
	assert.Equal(t, "Foo", arr.Parts[0].Raw)

	bar := sig.Parts[1]
	assert.Equal(t, SigSymbol, bar.Kind)
	assert.Equal(t, "Bar", bar.Raw)

	assert.Contains(t, sig.Refs, "Foo")
	assert.Contains(t, sig.Refs, "Bar")
	assert.Len(t, sig.Refs, 2)
}

func TestSignature_DeepNesting(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	sig := parseSig(b, "TMap<TMap<A,B>,TArray<C>>")

	require.Equal(t, SigMap, sig.Kind)
	require.Len(t, sig.Parts, 2)
	assert.Equal(t, SigMap, sig.Parts[0].Kind)
	assert.Len(t, sig.Parts[0].Parts, 2)
	assert.Equal(t, SigArray, sig.Parts[1].Kind)
	assert.Len(t, sig.Refs, 3)
}

func TestSignature_UnionOptional(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	sig := parseSig(b, "Foo|Bar?")

	require.Equal(t, SigUnion, sig.Kind)
	assert.True(t, sig.IsOptional)
	require.Len(t, sig.Parts, 2)
	assert.Equal(t, SigSymbol, sig.Parts[0].Kind)
	assert.Equal(t, "Foo", sig.Parts[0].Raw)
	assert.Equal(t, SigSymbol, sig.Parts[1].Kind)
	assert.Equal(t, "Bar", sig.Parts[1].Raw)
	assert.Contains(t, sig.Refs, "Foo")
	assert.Contains(t, sig.Refs, "Bar")
}

func TestSignature_UnionWithNil(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	sig := parseSig(b, "string | nil")
	assert.Equal(t, SigUnion, sig.Kind)
	assert.True(t, sig.IsOptional)

	plain := parseSig(b, "string|integer")
	assert.False(t, plain.IsOptional)
}

func TestSignature_Optional(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	sig := parseSig(b, "Foo?")

	require.Equal(t, SigOptional, sig.Kind)
	assert.True(t, sig.IsOptional)
	require.Len(t, sig.Parts, 1)
	assert.Equal(t, SigSymbol, sig.Parts[0].Kind)
	assert.Contains(t, sig.Refs, "Foo")
}

func TestSignature_ArraySuffix(t *testing.T) {
	t.Parallel()

	b := newTestBuild()

	sig := parseSig(b, "Foo[]")
	require.Equal(t, SigArray, sig.Kind)
	require.Len(t, sig.Parts, 1)
	assert.Equal(t, "Foo", sig.Parts[0].Raw)

	grouped := parseSig(b, "(Foo|Bar)[]")
	require.Equal(t, SigArray, grouped.Kind)
	require.Len(t, grouped.Parts, 1)
	assert.Equal(t, SigUnion, grouped.Parts[0].Kind)
	assert.Len(t, grouped.Refs, 2)
}

func TestSignature_GenericSymbol(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	sig := parseSig(b, "TSubclassOf<AActor>")

	require.Equal(t, SigSymbol, sig.Kind)
	require.Len(t, sig.Parts, 1)
	assert.Contains(t, sig.Refs, "TSubclassOf")
	assert.Contains(t, sig.Refs, "AActor")
}

func TestSignature_FunctionType(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	sig := parseSig(b, "fun(a: Foo, b: integer): Bar")

	assert.Equal(t, SigFunction, sig.Kind)
	assert.Equal(t, "fun(a:Foo,b:integer):Bar", sig.Function)
	assert.Empty(t, sig.Parts)
	assert.Len(t, sig.Refs, 2)
	assert.Contains(t, sig.Refs, "Foo")
	assert.Contains(t, sig.Refs, "Bar")
}

func TestSignature_TableLiteral(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	sig := parseSig(b, "{[string]: Foo, count: integer}")

	assert.Equal(t, SigPrimitive, sig.Kind)
	assert.Equal(t, map[string]int{"Foo": b.reg.byName["Foo"][0].ID}, sig.Refs)
}

func TestSignature_MalformedGeneric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		kind SignatureKind
	}{
		{"TArray<>", SigArray},
		{"TArray<Foo", SigArray},
		{"TMap<Foo>", SigMap},
		{"TSet<Foo>x", SigSet},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			b := newTestBuild()
			sig := parseSig(b, tt.raw)
			assert.Equal(t, tt.kind, sig.Kind)
			assert.Empty(t, sig.Parts)
			require.Len(t, b.diags.list, 1)
			assert.Equal(t, SeverityWarning, b.diags.list[0].Severity)
			assert.Contains(t, b.diags.list[0].Message, "malformed generic")
		})
	}
}

func TestSignature_Literals(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	assert.Equal(t, SigLiteral, parseSig(b, `"read"`).Kind)
	assert.Equal(t, SigLiteral, parseSig(b, `'write'`).Kind)
	assert.Equal(t, SigLiteral, parseSig(b, "42").Kind)
	assert.Equal(t, SigLiteral, parseSig(b, "-1.5").Kind)
	assert.Empty(t, b.reg.symbols)
}

func TestSignature_TypeParameter(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	ctx := sigContext{line: 1, typeParams: map[string]struct{}{"T": {}}}
	sig := b.sigs.parse("T[]", ctx)

	require.Equal(t, SigArray, sig.Kind)
	assert.Equal(t, SigTypeParameter, sig.Parts[0].Kind)
	assert.Empty(t, sig.Refs)
}

func TestSignature_Unrecognized(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	sig := parseSig(b, "foo-bar")

	assert.Equal(t, SigPrimitive, sig.Kind)
	assert.Equal(t, "foo-bar", sig.Raw)
	assert.Len(t, b.diags.list, 1)
}

func TestSignature_Empty(t *testing.T) {
	t.Parallel()

	b := newTestBuild()
	sig := parseSig(b, "")
	assert.Equal(t, SigPrimitive, sig.Kind)
	assert.Len(t, b.diags.list, 1)
}

func TestExtractType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		typ  string
		rest string
	}{
		{"Foo", "Foo", ""},
		{"Foo the description", "Foo", "the description"},
		{"Foo | Bar desc", "Foo | Bar", "desc"},
		{"TMap<K, V> the map", "TMap<K, V>", "the map"},
		{"fun(a: integer): string cb", "fun(a: integer): string", "cb"},
		{"  string  # padded ", "string", "# padded"},
	}

	for _, tt := range tests {
		typ, rest := extractType(tt.in)
		assert.Equal(t, tt.typ, typ, tt.in)
		assert.Equal(t, tt.rest, rest, tt.in)
	}
}

func TestNormalizeType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "TMap<Key,Value>", normalizeType("TMap < Key , Value >"))
	assert.Equal(t, "A|B?", normalizeType("A | B ?"))
	assert.Equal(t, "fun(a:integer):string", normalizeType("fun(a: integer): string"))
}

func TestSplitTopLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"A<B,C>", "D"}, splitTopLevel("A<B,C>,D", ','))
	assert.Equal(t, []string{"fun(a:A|B)", "C"}, splitTopLevel("fun(a:A|B)|C", '|'))
	assert.Equal(t, []string{"A"}, splitTopLevel("A", '|'))
}

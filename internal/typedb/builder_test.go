package typedb

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Build:
// - Ids are unique and every (name, kind) pair maps to one symbol
// - Class fields, parents, methods and end lines
// - A class block followed by an enum ends one line above the enum
// - Backward scan keeps parameter order and the declared return
// - Unannotated declared parameters become any
// - Enum values, simple and complex aliases
// - Forward references across files are promoted, keeping edges
// - Undeclared property types end up in Unknowns
// - Kind conflicts are reported, not overwritten
// - Empty input yields an empty database
// - Accessors: lookups, referencers, indexes, file lines, JSON

var fixture = strings.Join([]string{
	"---@class UObject",                        // 1
	"---@field Name string",                    // 2
	"---@field Outer UObject?",                 // 3
	"",                                         // 4
	"---@class AActor : UObject",               // 5
	"---@field Owner APawn",                    // 6
	"---@field Tags TArray<FName>",             // 7
	"---@field private Health? number",         // 8
	"local AActor = {}",                        // 9
	"",                                         // 10
	"---@param DeltaSeconds number",            // 11
	"---@return boolean",                       // 12
	"function AActor:Tick(DeltaSeconds) end",   // 13
	"",                                         // 14
	"---@param a integer",                      // 15
	"---@param b AActor",                       // 16
	"---@return string",                        // 17
	"function AActor.Describe(a, b) end",       // 18
	"---@enum ECollision",                      // 19
	"ECollision = {",                           // 20
	"    None = 0,",                            // 21
	"    Block = 1, -- blocks",                 // 22
	"}",                                        // 23
	"",                                         // 24
	"---@alias Handle integer",                 // 25
	"",                                         // 26
	"---@alias Mode",                           // 27
	`---| "read" # open for reading`,           // 28
	"---| `AActor`",                            // 29
	"",                                         // 30
	"---@param target AActor",                  // 31
	"---@param count integer",                  // 32
	"---@return Widget",                        // 33
	"function Spawn(target, count, extra) end", // 34
}, "\n")

func buildTexts(texts ...string) *Database {
	return Build(texts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func mustLookup(t *testing.T, db *Database, name string, kind SymbolKind) *Symbol {
	t.Helper()
	sym, ok := db.LookupKind(name, kind)
	require.True(t, ok, "%s %s not found", kind, name)
	return sym
}

func TestBuild_UniqueIdentity(t *testing.T) {
	t.Parallel()

	db := buildTexts(fixture, "---@class Extra : AActor\n---@field Ref Missing")

	ids := make(map[int]bool)
	keys := make(map[symbolKey]bool)
	for i, sym := range db.Symbols() {
		assert.Equal(t, i, sym.ID)
		assert.False(t, ids[sym.ID], "duplicate id %d", sym.ID)
		ids[sym.ID] = true

		key := symbolKey{sym.Name, sym.Kind}
		assert.False(t, keys[key], "duplicate symbol %v", key)
		keys[key] = true
	}
}

func TestBuild_Classes(t *testing.T) {
	t.Parallel()

	db := buildTexts(fixture)

	object := mustLookup(t, db, "UObject", KindClass)
	assert.Equal(t, 1, object.LineStart)
	assert.Equal(t, 4, object.LineEnd)
	require.Len(t, object.Class.Properties, 2)
	assert.Equal(t, "Name", object.Class.Properties[0].Name)
	assert.Equal(t, "string", object.Class.Properties[0].Type)
	outer := object.Class.Properties[1]
	assert.True(t, outer.Optional)
	assert.Equal(t, []Reference{{ReferencerID: outer.ID, Kind: RefProperty}}, object.References)

	actor := mustLookup(t, db, "AActor", KindClass)
	require.NotNil(t, actor.Class.ParentID)
	assert.Equal(t, object.ID, *actor.Class.ParentID)
	assert.True(t, actor.Class.HasParent)
	assert.Equal(t, []int{actor.ID}, object.Class.Children)

	require.Len(t, actor.Class.Properties, 3)
	health := actor.Class.Properties[2]
	assert.Equal(t, "Health", health.Name)
	assert.Equal(t, "private", health.Scope)
	assert.True(t, health.Optional)
	assert.Equal(t, 8, health.Line)

	tags := actor.Class.Properties[1]
	assert.Equal(t, SigArray, tags.Signature.Kind)
	assert.Equal(t, "TArray<FName>", tags.Type)
}

func TestBuild_ClassEndsBeforeEnum(t *testing.T) {
	t.Parallel()

	db := buildTexts(fixture)

	actor := mustLookup(t, db, "AActor", KindClass)
	enum := mustLookup(t, db, "ECollision", KindEnum)

	assert.Equal(t, 5, actor.LineStart)
	assert.Equal(t, enum.LineStart-1, actor.LineEnd)
	assert.GreaterOrEqual(t, actor.LineEnd, actor.LineStart)
}

func TestBuild_ClassEndsAtEndOfFile(t *testing.T) {
	t.Parallel()

	db := buildTexts("---@class Solo\n---@field X number\n\n-- trailing")
	solo := mustLookup(t, db, "Solo", KindClass)
	assert.Equal(t, 1, solo.LineStart)
	assert.Equal(t, 4, solo.LineEnd)
}

func TestBuild_Methods(t *testing.T) {
	t.Parallel()

	db := buildTexts(fixture)
	actor := mustLookup(t, db, "AActor", KindClass)
	require.Len(t, actor.Class.Methods, 2)

	tick := actor.Class.Methods[0]
	assert.Equal(t, "Tick", tick.Name)
	assert.False(t, tick.Static)
	assert.Equal(t, 13, tick.Line)
	assert.Equal(t, actor.ID, tick.ClassID)
	require.Len(t, tick.Params, 1)
	assert.Equal(t, "DeltaSeconds", tick.Params[0].Name)
	require.NotNil(t, tick.Params[0].MethodID)
	assert.Equal(t, tick.ID, *tick.Params[0].MethodID)
	assert.Equal(t, "boolean", tick.Return.Raw)

	describe := actor.Class.Methods[1]
	assert.True(t, describe.Static)
	require.Len(t, describe.Params, 2)
	assert.Equal(t, "a", describe.Params[0].Name)
	assert.Equal(t, "b", describe.Params[1].Name)
	assert.Equal(t, SigSymbol, describe.Params[1].Signature.Kind)
	assert.Equal(t, "string", describe.Return.Raw)

	assert.Contains(t, actor.References, Reference{ReferencerID: describe.Params[1].ID, Kind: RefParameter})
}

func TestBuild_BackwardScanOrder(t *testing.T) {
	t.Parallel()

	db := buildTexts(strings.Join([]string{
		"---@param a string",
		"---@param b Foo",
		"---@return Bar",
		"function f(a, b) end",
	}, "\n"))

	fn := mustLookup(t, db, "f", KindGlobalFunction)
	require.Len(t, fn.Function.Params, 2)
	assert.Equal(t, "a", fn.Function.Params[0].Name)
	assert.Equal(t, "b", fn.Function.Params[1].Name)
	assert.True(t, fn.Function.Params[1].Annotated)

	require.Equal(t, SigSymbol, fn.Function.Return.Kind)
	assert.Equal(t, "Bar", fn.Function.Return.Raw)
	bar := mustLookup(t, db, "Bar", KindUnknown)
	assert.Equal(t, bar.ID, *fn.Function.Return.SymbolID)
	assert.Equal(t, []Reference{{ReferencerID: fn.ID, Kind: RefGlobalFunction}}, bar.References)
	assert.Equal(t, "function f(a, b) end", fn.Function.Signature)
}

func TestBuild_ScanStopsAtUnrelatedLine(t *testing.T) {
	t.Parallel()

	db := buildTexts(strings.Join([]string{
		"---@param stale number",
		"local x = 1",
		"---@deprecated",
		"---@param a integer",
		"function g(a) end",
	}, "\n"))

	fn := mustLookup(t, db, "g", KindGlobalFunction)
	require.Len(t, fn.Function.Params, 1)
	assert.Equal(t, "a", fn.Function.Params[0].Name)
	assert.Equal(t, []string{"deprecated"}, fn.Function.Modifiers)
	assert.Equal(t, "void", fn.Function.Return.Raw)
}

func TestBuild_GlobalFunctions(t *testing.T) {
	t.Parallel()

	db := buildTexts(fixture)
	spawn := mustLookup(t, db, "Spawn", KindGlobalFunction)
	assert.Equal(t, 34, spawn.LineStart)

	params := spawn.Function.Params
	require.Len(t, params, 3)
	assert.Equal(t, "target", params[0].Name)
	assert.Equal(t, "count", params[1].Name)
	assert.Equal(t, "extra", params[2].Name)
	assert.Equal(t, "any", params[2].Type)
	assert.False(t, params[2].Annotated)
	assert.Equal(t, spawn.ID, params[2].SymbolID)
	assert.Nil(t, params[2].MethodID)

	assert.Equal(t, "Widget", spawn.Function.Return.Raw)
}

func TestBuild_GenericFunction(t *testing.T) {
	t.Parallel()

	db := buildTexts(strings.Join([]string{
		"---@generic T",
		"---@param list T[]",
		"---@return T",
		"function first(list) end",
	}, "\n"))

	fn := mustLookup(t, db, "first", KindGlobalFunction)
	assert.Equal(t, SigTypeParameter, fn.Function.Return.Kind)
	assert.Equal(t, []string{"generic"}, fn.Function.Modifiers)
	assert.Empty(t, db.Unknowns())
}

func TestBuild_Enum(t *testing.T) {
	t.Parallel()

	db := buildTexts(fixture)
	enum := mustLookup(t, db, "ECollision", KindEnum)

	assert.Equal(t, 19, enum.LineStart)
	assert.Equal(t, 23, enum.LineEnd)
	require.Len(t, enum.Enum.Values, 2)
	assert.Equal(t, "None", enum.Enum.Values[0].Name)
	assert.Equal(t, "0", enum.Enum.Values[0].Value)
	assert.Equal(t, "Block", enum.Enum.Values[1].Name)
	assert.Equal(t, "1", enum.Enum.Values[1].Value)
	assert.Equal(t, 22, enum.Enum.Values[1].Line)
}

func TestBuild_InlineEnum(t *testing.T) {
	t.Parallel()

	db := buildTexts("---@enum Dir\nDir = { Up = 1, Down = 2 }\n---@class After")
	enum := mustLookup(t, db, "Dir", KindEnum)
	require.Len(t, enum.Enum.Values, 2)
	assert.Equal(t, "Down", enum.Enum.Values[1].Name)
	assert.Equal(t, 2, enum.LineEnd)
	mustLookup(t, db, "After", KindClass)
}

func TestBuild_Aliases(t *testing.T) {
	t.Parallel()

	db := buildTexts(fixture)

	handle := mustLookup(t, db, "Handle", KindAlias)
	require.Len(t, handle.Alias.Values, 1)
	assert.Equal(t, "integer", handle.Alias.Values[0].Type)

	mode := mustLookup(t, db, "Mode", KindAlias)
	require.Len(t, mode.Alias.Values, 2)
	assert.Equal(t, `"read"`, mode.Alias.Values[0].Type)
	assert.Equal(t, "open for reading", mode.Alias.Values[0].Description)
	assert.Equal(t, SigLiteral, mode.Alias.Values[0].Signature.Kind)
	assert.Equal(t, "AActor", mode.Alias.Values[1].Type)
	assert.Equal(t, 27, mode.LineStart)
	assert.Equal(t, 29, mode.LineEnd)

	actor := mustLookup(t, db, "AActor", KindClass)
	assert.Contains(t, actor.References, Reference{ReferencerID: mode.ID, Kind: RefAlias})
}

func TestBuild_ForwardReferenceAcrossFiles(t *testing.T) {
	t.Parallel()

	db := buildTexts(
		"---@class A\n---@field b B",
		"\n---@class B : A",
	)

	b := mustLookup(t, db, "B", KindClass)
	assert.Equal(t, 1, b.File)
	assert.Equal(t, 2, b.LineStart)
	a := mustLookup(t, db, "A", KindClass)
	require.Len(t, a.Class.Properties, 1)
	assert.Equal(t, []Reference{{ReferencerID: a.Class.Properties[0].ID, Kind: RefProperty}}, b.References)
	assert.Equal(t, []int{b.ID}, a.Class.Children)
	assert.Empty(t, db.Unknowns())
	assert.Len(t, db.Lookup("B"), 1)
}

func TestBuild_Unknowns(t *testing.T) {
	t.Parallel()

	db := buildTexts("---@class Holder\n---@field Thing Baz")

	baz, ok := db.LookupKind("Baz", KindUnknown)
	require.True(t, ok)
	require.Len(t, db.Unknowns(), 1)
	assert.Same(t, baz, db.Unknowns()[0])
	assert.Nil(t, baz.Class)
	assert.Equal(t, []NameID{{ID: baz.ID, Name: "baz", Kind: KindUnknown}}, db.NameIndex(KindUnknown))
}

func TestBuild_KindConflict(t *testing.T) {
	t.Parallel()

	db := buildTexts("---@alias Handle integer", "---@class Handle")

	require.Len(t, db.Conflicts(), 1)
	assert.Len(t, db.Lookup("Handle"), 2)
	mustLookup(t, db, "Handle", KindAlias)
	mustLookup(t, db, "Handle", KindClass)
	assert.Equal(t, 1, db.Stats().Conflicts)
}

func TestBuild_Diagnostics(t *testing.T) {
	t.Parallel()

	db := buildTexts(strings.Join([]string{
		"function Missing:Run() end",
		"function dup() end",
		"function dup() end",
		"---@class C",
		"---@field Bad TArray<",
	}, "\n"))

	assert.Empty(t, db.Methods())
	require.Len(t, db.Diagnostics(), 3)
	assert.Contains(t, db.Diagnostics()[0].Message, "unknown class Missing")
	assert.Equal(t, 1, db.Diagnostics()[0].Line)
	assert.Contains(t, db.Diagnostics()[1].Message, "already defined")
	assert.Contains(t, db.Diagnostics()[2].Message, "malformed generic")
	assert.Len(t, db.GlobalFunctions(), 1)
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	for _, db := range []*Database{buildTexts(), Build(nil)} {
		assert.Empty(t, db.Symbols())
		assert.NotNil(t, db.Symbols())
		assert.Empty(t, db.Unknowns())
		assert.Empty(t, db.Diagnostics())
		assert.Equal(t, Stats{}, db.Stats())
		assert.NotEmpty(t, db.BuildID())
	}
}

func TestDatabase_Accessors(t *testing.T) {
	t.Parallel()

	db := buildTexts(fixture)
	actor := mustLookup(t, db, "AActor", KindClass)

	sym, ok := db.Symbol(actor.ID)
	require.True(t, ok)
	assert.Same(t, actor, sym)
	_, ok = db.Symbol(-1)
	assert.False(t, ok)

	_, ok = db.SymbolOfKind(KindEnum, actor.ID)
	assert.False(t, ok)
	sym, ok = db.SymbolOfKind(KindClass, actor.ID)
	require.True(t, ok)
	assert.Same(t, actor, sym)

	prefix := db.LookupPrefix(KindClass, "aa")
	require.Len(t, prefix, 1)
	assert.Equal(t, actor.ID, prefix[0].ID)

	all := db.LookupPrefix("", "U")
	require.Len(t, all, 1)
	assert.Equal(t, "uobject", all[0].Name)

	sub := db.LookupSubstring(KindClass, "ACT")
	require.Len(t, sub, 1)
	assert.Equal(t, "aactor", sub[0].Name)

	for _, ref := range actor.References {
		owner, ok := db.Referencer(ref)
		require.True(t, ok, "referencer of %+v", ref)
		switch ref.Kind {
		case RefAlias:
			assert.Equal(t, "Mode", owner.Name)
		case RefParameter:
			assert.Contains(t, []string{"AActor", "Spawn"}, owner.Name)
		}
	}

	p, ok := db.Property(actor.Class.Properties[0].ID)
	require.True(t, ok)
	assert.Equal(t, "Owner", p.Name)

	m, ok := db.Method(actor.Class.Methods[0].ID)
	require.True(t, ok)
	assert.Equal(t, "Tick", m.Name)

	assert.Len(t, db.PropertyIndex(), 5)
	assert.Len(t, db.MethodIndex(), 2)
	assert.Len(t, db.ParameterIndex(), 6)
	assert.Equal(t, "a", db.ParameterIndex()[0].Name)

	assert.Equal(t, 1, db.FileCount())
	assert.Equal(t, "---@class UObject", db.FileLines(0)[0])
	assert.Nil(t, db.FileLines(3))

	stats := db.Stats()
	assert.Equal(t, 2, stats.Classes)
	assert.Equal(t, 1, stats.Enums)
	assert.Equal(t, 2, stats.Aliases)
	assert.Equal(t, 1, stats.GlobalFunctions)
	assert.Equal(t, 2, stats.Unknowns)
	assert.Equal(t, 2, stats.EnumValues)
}

func TestDatabase_MarshalJSON(t *testing.T) {
	t.Parallel()

	db := Build([]string{fixture}, WithFileNames([]string{"actor.lua"}))
	data, err := json.Marshal(db)
	require.NoError(t, err)

	var decoded struct {
		BuildID  string            `json:"build_id"`
		Files    []string          `json:"files"`
		Symbols  []json.RawMessage `json:"symbols"`
		Unknowns []NameID          `json:"unknowns"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, db.BuildID(), decoded.BuildID)
	assert.Equal(t, []string{"actor.lua"}, decoded.Files)
	assert.Len(t, decoded.Symbols, len(db.Symbols()))
	assert.Len(t, decoded.Unknowns, 2)
}

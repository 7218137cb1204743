package typedb

// SymbolKind represents the declared kind of a symbol.
type SymbolKind string

const (
	KindClass          SymbolKind = "Class"
	KindEnum           SymbolKind = "Enum"
	KindAlias          SymbolKind = "Alias"
	KindGlobalFunction SymbolKind = "GlobalFunction"
	KindUnknown        SymbolKind = "Unknown" // Referenced but never declared
)

// ReferenceKind represents what kind of member mentions a symbol.
type ReferenceKind string

const (
	RefProperty       ReferenceKind = "property"
	RefParameter      ReferenceKind = "parameter"
	RefMethod         ReferenceKind = "method"          // Method return type
	RefGlobalFunction ReferenceKind = "global-function" // Global function return type
	RefAlias          ReferenceKind = "alias"           // Alias value
)

// SignatureKind classifies a parsed type expression.
type SignatureKind string

const (
	SigPrimitive     SignatureKind = "primitive"
	SigArray         SignatureKind = "array"
	SigMap           SignatureKind = "map"
	SigSet           SignatureKind = "set"
	SigUnion         SignatureKind = "union"
	SigOptional      SignatureKind = "optional"
	SigFunction      SignatureKind = "function"
	SigSymbol        SignatureKind = "symbol-reference"
	SigLiteral       SignatureKind = "literal"        // "foo", 42
	SigTypeParameter SignatureKind = "type-parameter" // Declared with ---@generic
)

// Reference is a directed edge pointing at the symbol that holds it.
// ReferencerID lives in the id space selected by Kind: property ids for
// RefProperty, parameter ids for RefParameter, method ids for RefMethod and
// symbol ids for RefGlobalFunction and RefAlias.
type Reference struct {
	ReferencerID int           `json:"id"`
	Kind         ReferenceKind `json:"type"`
}

// Symbol is a declared or referenced name.
// Exactly one of Class, Enum, Alias and Function is set, selected by Kind.
// Unknown symbols carry no payload.
type Symbol struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	Kind       SymbolKind  `json:"kind"`
	File       int         `json:"file"`
	LineStart  int         `json:"line_start"` // 1-indexed
	LineEnd    int         `json:"line_end"`   // 1-indexed, inclusive
	References []Reference `json:"references"`

	Class    *ClassInfo    `json:"class,omitempty"`
	Enum     *EnumInfo     `json:"enum,omitempty"`
	Alias    *AliasInfo    `json:"alias,omitempty"`
	Function *FunctionInfo `json:"function,omitempty"`
}

// ClassInfo holds the members of a class symbol.
type ClassInfo struct {
	ParentID   *int        `json:"parent,omitempty"`
	HasParent  bool        `json:"has_parent"`
	Children   []int       `json:"children"`
	Properties []*Property `json:"properties"`
	Methods    []*Method   `json:"methods"`
}

// EnumInfo holds the values of an enum symbol in declaration order.
type EnumInfo struct {
	Values []*EnumValue `json:"values"`
}

// AliasInfo holds the type strings an alias may stand for.
type AliasInfo struct {
	Values []*AliasValue `json:"values"`
}

// FunctionInfo holds the signature of a global function symbol.
type FunctionInfo struct {
	Params    []*Parameter   `json:"params"`
	Return    *TypeSignature `json:"return"`
	Returns   []*ReturnValue `json:"returns,omitempty"`
	Signature string         `json:"signature,omitempty"` // Raw declaration line
	Modifiers []string       `json:"modifiers,omitempty"`
}

// Property is a field declared on a class.
type Property struct {
	ID        int            `json:"id"`
	SymbolID  int            `json:"parent"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Signature *TypeSignature `json:"signature"`
	Optional  bool           `json:"optional,omitempty"`
	Scope     string         `json:"scope,omitempty"` // public, private, protected, package
	File      int            `json:"file"`
	Line      int            `json:"line"`
}

// Parameter is an argument of a method or global function.
type Parameter struct {
	ID        int            `json:"id"`
	SymbolID  int            `json:"parent"`
	MethodID  *int           `json:"method,omitempty"` // Set when owned by a method
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Signature *TypeSignature `json:"signature"`
	Optional  bool           `json:"optional,omitempty"`
	Annotated bool           `json:"annotated"` // False when only present in the declaration
	File      int            `json:"file"`
	Line      int            `json:"line"`
}

// EnumValue is one name = value pair of an enum.
type EnumValue struct {
	ID       int    `json:"id"`
	SymbolID int    `json:"parent"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	File     int    `json:"file"`
	Line     int    `json:"line"`
}

// AliasValue is one option of an alias.
type AliasValue struct {
	Type        string         `json:"type"`
	Signature   *TypeSignature `json:"signature"`
	Description string         `json:"description,omitempty"`
	Line        int            `json:"line"`
}

// ReturnValue is one ---@return annotation.
type ReturnValue struct {
	Name      string         `json:"name,omitempty"`
	Type      string         `json:"type"`
	Signature *TypeSignature `json:"signature"`
	Line      int            `json:"line"`
}

// Method is a function declared on a class.
type Method struct {
	ID        int            `json:"id"`
	ClassID   int            `json:"parent"`
	Name      string         `json:"name"`
	Params    []*Parameter   `json:"params"`
	Return    *TypeSignature `json:"return"`
	Returns   []*ReturnValue `json:"returns,omitempty"`
	Static    bool           `json:"static,omitempty"` // Declared as Owner.name rather than Owner:name
	Modifiers []string       `json:"modifiers,omitempty"`
	File      int            `json:"file"`
	Line      int            `json:"line"`
}

// TypeSignature is a parsed type expression.
type TypeSignature struct {
	Raw        string           `json:"raw"`
	Kind       SignatureKind    `json:"kind"`
	IsOptional bool             `json:"optional,omitempty"`
	Parts      []*TypeSignature `json:"parts,omitempty"`
	SymbolID   *int             `json:"symbol,omitempty"`   // Set for SigSymbol
	Function   string           `json:"function,omitempty"` // Raw text for SigFunction
	Refs       map[string]int   `json:"refs"`               // Embedded type token -> symbol id
}

// NameID is one entry of a name-sorted lookup index.
type NameID struct {
	ID   int        `json:"id"`
	Name string     `json:"name"` // Lower-cased
	Kind SymbolKind `json:"kind,omitempty"`
}

// Conflict records a name declared under two different concrete kinds.
type Conflict struct {
	Name         string     `json:"name"`
	ExistingID   int        `json:"existing_id"`
	ExistingKind SymbolKind `json:"existing_kind"`
	DeclaredID   int        `json:"declared_id"`
	DeclaredKind SymbolKind `json:"declared_kind"`
	File         int        `json:"file"`
	Line         int        `json:"line"`
}

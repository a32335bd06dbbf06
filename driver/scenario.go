// Package driver loads scenario files, applies the solution they describe to
// the expression tree they describe, and renders the result. A scenario is
// the textual form of a solver run: the declarations in scope, the tree as
// the solver left it, and the bindings, overload choices, and restrictions
// the solver committed.
package driver

// Scenario is the top-level layout of a scenario file.
type Scenario struct {
	World        WorldSpec         `yaml:"world"`
	Decls        []DeclSpec        `yaml:"decls"`
	Tvs          []TvSpec          `yaml:"tvs"`
	Expr         *ExprSpec         `yaml:"expr"`
	Bindings     map[string]string `yaml:"bindings"`
	Overloads    []OverloadSpec    `yaml:"overloads"`
	Restrictions []RestrictionSpec `yaml:"restrictions"`

	// CoerceTo applies a final coercion to the result; Convert applies a
	// logic-value or array-bound conversion instead.
	CoerceTo string `yaml:"coerce_to"`
	Convert  string `yaml:"convert"`
}

type WorldSpec struct {
	Archetypes   []ArchetypeSpec   `yaml:"archetypes"`
	Protocols    []ProtocolSpec    `yaml:"protocols"`
	Types        []TypeSpec        `yaml:"types"`
	Modules      []string          `yaml:"modules"`
	Conformances []ConformanceSpec `yaml:"conformances"`
	Defaults     map[string]string `yaml:"defaults"`

	// ArrayInjection names a free function declared in decls that wraps
	// collected variadic values.
	ArrayInjection string `yaml:"array_injection"`
}

type ArchetypeSpec struct {
	Name       string   `yaml:"name"`
	Superclass string   `yaml:"superclass"`
	Conforms   []string `yaml:"conforms"`
}

type ProtocolSpec struct {
	Name         string     `yaml:"name"`
	Role         string     `yaml:"role"`
	Assoc        []string   `yaml:"assoc"`
	Requirements []DeclSpec `yaml:"requirements"`
}

type TypeSpec struct {
	Name       string     `yaml:"name"`
	Kind       string     `yaml:"kind"`
	Params     []string   `yaml:"params"`
	Superclass string     `yaml:"superclass"`
	Members    []DeclSpec `yaml:"members"`
}

// DeclSpec declares one function, variable, constructor, enum element, or
// subscript. Exactly one of the name fields is set.
type DeclSpec struct {
	Func        string `yaml:"func"`
	Var         string `yaml:"var"`
	Constructor string `yaml:"constructor"`
	Element     string `yaml:"element"`
	Subscript   string `yaml:"subscript"`

	Type     string `yaml:"type"`
	InitType string `yaml:"init_type"`
	Index    string `yaml:"index"`
	ElemType string `yaml:"elem_type"`

	Instance   bool `yaml:"instance"`
	Static     bool `yaml:"static"`
	Operator   bool `yaml:"operator"`
	Conversion bool `yaml:"conversion"`
	Assignment bool `yaml:"assignment"`
	Stored     bool `yaml:"stored"`
	ArgClauses int  `yaml:"arg_clauses"`
}

type ConformanceSpec struct {
	Type          string            `yaml:"type"`
	Protocol      string            `yaml:"protocol"`
	Witnesses     map[string]string `yaml:"witnesses"`
	TypeWitnesses map[string]string `yaml:"type_witnesses"`
}

type TvSpec struct {
	Name   string `yaml:"name"`
	Opened string `yaml:"opened"`
	Anchor string `yaml:"anchor"`
}

// ExprSpec describes one tree node; Kind selects the node and the remaining
// fields supply its parts. Ids let overload choices anchor to nodes.
type ExprSpec struct {
	Id   string `yaml:"id"`
	Kind string `yaml:"kind"`
	Type string `yaml:"type"`

	Value    string      `yaml:"value"`
	Name     string      `yaml:"name"`
	Decl     string      `yaml:"decl"`
	Decls    []string    `yaml:"decls"`
	Module   string      `yaml:"module"`
	Target   string      `yaml:"target"`
	Args     []string    `yaml:"args"`
	Names    []string    `yaml:"names"`
	Params   []ParamSpec `yaml:"params"`
	Implicit bool        `yaml:"implicit"`

	Base     *ExprSpec   `yaml:"base"`
	Sub      *ExprSpec   `yaml:"sub"`
	Fn       *ExprSpec   `yaml:"fn"`
	Arg      *ExprSpec   `yaml:"arg"`
	Index    *ExprSpec   `yaml:"index"`
	Dest     *ExprSpec   `yaml:"dest"`
	Src      *ExprSpec   `yaml:"src"`
	Cond     *ExprSpec   `yaml:"cond"`
	Then     *ExprSpec   `yaml:"then"`
	Else     *ExprSpec   `yaml:"else"`
	Body     *ExprSpec   `yaml:"body"`
	Elements []*ExprSpec `yaml:"elements"`
}

type ParamSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type OverloadSpec struct {
	At     string   `yaml:"at"`
	Path   []string `yaml:"path"`
	Kind   string   `yaml:"kind"`
	Decl   string   `yaml:"decl"`
	Index  int      `yaml:"index"`
	BaseTy string   `yaml:"base"`
	Opened string   `yaml:"opened"`
}

type RestrictionSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Kind string `yaml:"kind"`
}

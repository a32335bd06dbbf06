// Package ast defines the expression tree the rewriter consumes and produces.
// Nodes arrive from the solver partially typed; after application every node
// carries its final type and all implicit conversions are explicit nodes.
package ast

import (
	"quill/database"
	"quill/types"
)

type Expr interface {
	database.Node
	Type() types.Type
	SetType(ty types.Type)
	IsImplicit() bool
}

type Base struct {
	Ty       types.Type
	Implicit bool
	Facts    *database.Facts
}

func (base *Base) Type() types.Type {
	return base.Ty
}

func (base *Base) SetType(ty types.Type) {
	base.Ty = ty
}

func (base *Base) IsImplicit() bool {
	return base.Implicit
}

func (base *Base) GetFacts() *database.Facts {
	return base.Facts
}

// NewBase builds node state for a source-level node at a span.
func NewBase(span database.Span) Base {
	return Base{Facts: database.NewFacts(span)}
}

// SynthBase builds node state for a node synthesized at the position of an
// existing one.
func SynthBase(at Expr, ty types.Type) Base {
	return Base{
		Ty:       ty,
		Implicit: true,
		Facts:    database.NewFacts(database.GetSpanFact(at)),
	}
}

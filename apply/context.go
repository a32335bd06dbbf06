// Package apply rewrites a solved expression tree into its fully typed form.
// Every type variable is replaced by its binding, every overloaded reference
// by its chosen declaration, and every implicit conversion by an explicit
// tree node, so later phases never consult the solution again.
package apply

import (
	"github.com/tliron/commonlog"

	"quill/database"
	"quill/decl"
	"quill/feedback"
)

var log = commonlog.GetLogger("quill.apply")

// Context carries everything application needs besides the solution itself.
type Context struct {
	Db       *database.Db
	World    *decl.World
	Reporter *feedback.Reporter
}

func NewContext(db *database.Db, world *decl.World) *Context {
	return &Context{
		Db:       db,
		World:    world,
		Reporter: feedback.NewReporter(db),
	}
}

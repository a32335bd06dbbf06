package feedback

import (
	"bytes"
	"fmt"

	"quill/colors"
	"quill/database"
	"quill/types"
)

type Render struct {
	db  *database.Db
	buf bytes.Buffer
}

func NewRender(db *database.Db) *Render {
	return &Render{db: db}
}

func (render *Render) WriteString(s string) {
	fmt.Fprintf(&render.buf, "%s", s)
}

func (render *Render) WriteNode(node database.Node) {
	fmt.Fprintf(&render.buf, "%s", database.DisplayNode(node))
}

func (render *Render) WriteCode(code string) {
	fmt.Fprintf(&render.buf, "%s", colors.Code(code))
}

func (render *Render) WriteType(ty types.Type) {
	fmt.Fprintf(&render.buf, "%s", colors.Code(types.Display(ty)))
}

func (render *Render) Finish() string {
	return render.buf.String()
}

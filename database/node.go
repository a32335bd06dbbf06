package database

import (
	"fmt"
	"reflect"

	"quill/colors"
)

type Node interface {
	GetFacts() *Facts
}

// HiddenNode is a synthesized node with no presence in the source; it exists
// only to carry facts (for example, an instantiated type parameter).
type HiddenNode struct {
	Facts *Facts
}

func (node *HiddenNode) GetFacts() *Facts {
	return node.Facts
}

var hiddenNodes = map[reflect.Type]struct{}{
	reflect.TypeFor[*HiddenNode](): {},
}

func HideNode[T Node]() {
	hiddenNodes[reflect.TypeFor[T]()] = struct{}{}
}

func IsHiddenNode(node Node) bool {
	_, ok := hiddenNodes[reflect.TypeOf(node)]
	return ok
}

func DisplayNode(node Node) string {
	name := reflect.TypeOf(node).Elem().Name()

	span := GetSpanFact(node)
	if span.Source == "" {
		return name
	}

	return fmt.Sprintf("%s %s %s", name, colors.Code(span.Source), colors.Extra(span.String()))
}

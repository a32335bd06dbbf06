package types

import "fmt"

func (element TupleElement) HasDefault() bool {
	return element.Default != NoDefault
}

// VarargBase returns the element type of a variadic tuple field, whose
// carried type is always a slice.
func (element TupleElement) VarargBase() Type {
	if !element.Variadic {
		panic("VarargBase on a non-variadic tuple field")
	}

	slice, ok := element.Ty.(*Slice)
	if !ok {
		panic(fmt.Sprintf("variadic tuple field does not carry a slice type: %s", Display(element.Ty)))
	}

	return slice.Element
}

// ScalarInitField returns the index of the unique tuple field that requires a
// caller-supplied value, or -1 if zero or more than one field does. A scalar
// may initialize a tuple exactly when such a field exists; a variadic field
// counts as requiring a value only when it is the sole candidate.
func (tuple *Tuple) ScalarInitField() int {
	index := -1
	for i, element := range tuple.Elements {
		if element.HasDefault() {
			continue
		}

		if index != -1 {
			// A later variadic field is fine; it ends up empty.
			if element.Variadic {
				continue
			}

			return -1
		}

		index = i
	}

	return index
}

func EmptyTuple() *Tuple {
	return &Tuple{}
}

// IsEmptyTuple reports whether ty is the unit type.
func IsEmptyTuple(ty Type) bool {
	tuple, ok := ty.(*Tuple)
	return ok && len(tuple.Elements) == 0
}

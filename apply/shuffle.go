package apply

import (
	"quill/ast"
	"quill/types"
)

// ComputeShuffle matches the fields of one tuple type against another.
// Destination fields match a source by name when they have one, by position
// otherwise; an unmatched field falls back to its default, and a trailing
// variadic field collects every leftover source. A positional match drops the
// source's label unless labelsMandatory is set, in which case a named
// destination refuses a source whose label differs. sources has one entry per
// destination field using the TupleShuffle codes; variadics lists the source
// fields collected by a trailing variadic destination, in order. ok is false
// when the tuples cannot be matched.
func ComputeShuffle(from *types.Tuple, to *types.Tuple, labelsMandatory bool) (sources []int, variadics []int, ok bool) {
	sources = make([]int, len(to.Elements))
	consumed := make([]bool, len(from.Elements))

	labelOk := func(toElt types.TupleElement, fromElt types.TupleElement) bool {
		return !labelsMandatory || toElt.Name == "" || fromElt.Name == toElt.Name
	}

	for i, toElt := range to.Elements {
		// A trailing variadic destination takes everything that's left.
		if toElt.Variadic && i == len(to.Elements)-1 {
			sources[i] = ast.FirstVariadic
			for j, fromElt := range from.Elements {
				if consumed[j] {
					continue
				}

				if !labelOk(toElt, fromElt) {
					return nil, nil, false
				}

				variadics = append(variadics, j)
				consumed[j] = true
			}

			continue
		}

		matched := -1

		if toElt.Name != "" {
			for j, fromElt := range from.Elements {
				if !consumed[j] && fromElt.Name == toElt.Name {
					matched = j
					break
				}
			}
		}

		if matched == -1 {
			// Positional fallback: the next unconsumed source.
			for j, fromElt := range from.Elements {
				if consumed[j] {
					continue
				}

				if labelOk(toElt, fromElt) {
					matched = j
				}

				break
			}
		}

		if matched != -1 {
			sources[i] = matched
			consumed[matched] = true
			continue
		}

		if toElt.HasDefault() {
			sources[i] = ast.DefaultInitialize
			continue
		}

		return nil, nil, false
	}

	// Leftover sources mean the conversion drops a value.
	for j := range from.Elements {
		if !consumed[j] {
			return nil, nil, false
		}
	}

	return sources, variadics, true
}

// hasMandatoryTupleLabels reports whether an expression is a spelled-out
// tuple whose labels are binding for positional matching.
func hasMandatoryTupleLabels(expr ast.Expr) bool {
	literal := tupleLiteral(expr)
	if literal == nil || literal.IsImplicit() {
		return false
	}

	for _, name := range literal.Names {
		if name != "" {
			return true
		}
	}

	return false
}

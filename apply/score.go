package apply

import (
	"quill/decl"
	"quill/types"
)

// FixedScore rates the solution for comparison against alternatives: each
// user-defined conversion the solution commits to costs 2, and each literal
// that lands on its protocol's default type earns 1. The result is memoized
// until the solution changes.
func (solution *Solution) FixedScore(world *decl.World) int {
	if solution.haveScore {
		return solution.score
	}

	score := 0

	for _, overload := range solution.overloads {
		if fn, ok := overload.Choice.Decl.(*decl.FuncDecl); ok && fn.Conversion {
			score -= 2
		}
	}

	for tv, binding := range solution.bindings {
		kp, ok := tv.Anchor.(decl.KnownProtocol)
		if !ok {
			continue
		}

		defaultTy := world.DefaultType(kp)
		if defaultTy != nil && types.Equal(solution.SimplifyType(binding), defaultTy) {
			score++
		}
	}

	solution.score = score
	solution.haveScore = true
	return score
}

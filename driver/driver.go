package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"

	"quill/apply"
	"quill/ast"
	"quill/colors"
	"quill/database"
	"quill/feedback"
)

var log = commonlog.GetLogger("quill.driver")

type Options struct {
	// Facts additionally dumps every registered node's facts after the tree.
	Facts bool
}

// RunFile loads a scenario file, applies it, and writes the resulting tree
// and feedback to w.
func RunFile(path string, options Options, w io.Writer) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return Run(filepath.Base(path), source, options, w)
}

func Run(name string, source []byte, options Options, w io.Writer) error {
	var scenario Scenario
	if err := yaml.Unmarshal(source, &scenario); err != nil {
		return err
	}

	db := database.NewDb(nil)
	b := newBuilder(db, name)

	if err := b.buildWorld(scenario.World, scenario.Decls, scenario.Tvs); err != nil {
		return err
	}

	expr, err := b.buildExpr(scenario.Expr)
	if err != nil {
		return err
	}

	solution, err := b.buildSolution(&scenario)
	if err != nil {
		return err
	}

	log.Debugf("solution score for %s: %d", name, solution.FixedScore(b.world))

	ctx := apply.NewContext(db, b.world)
	result := apply.ApplyTo(ctx, solution, expr)

	if scenario.CoerceTo != "" {
		ty, err := b.parseType(scenario.CoerceTo, nil)
		if err != nil {
			return err
		}

		result = apply.CoerceToType(ctx, solution, result, ty)
	}

	switch scenario.Convert {
	case "":
	case "logic_value":
		result = apply.ConvertToLogicValue(ctx, solution, result)
	case "array_bound":
		result = apply.ConvertToArrayBound(ctx, solution, result)
	default:
		return fmt.Errorf("unknown conversion %q", scenario.Convert)
	}

	ast.Dump(w, result)

	if options.Facts {
		fmt.Fprintf(w, "\n%s\n\n", colors.Title("Facts:"))
		db.Write(w, nil)
	}

	WriteFeedback(ctx.Reporter, w)

	return nil
}

// WriteFeedback renders the accumulated feedback items in source order,
// skipping repeats of the same item on the same node.
func WriteFeedback(reporter *feedback.Reporter, w io.Writer) int {
	seenFeedback := map[database.Node][]string{}
	feedbackCount := 0

	for _, item := range reporter.Items() {
		if slices.Contains(seenFeedback[item.On], item.Id) {
			continue
		}

		seenFeedback[item.On] = append(seenFeedback[item.On], item.Id)

		indent := "  "

		rendered := ansi.Wordwrap(item.String(), 100-len(indent), " ")
		for i, line := range strings.Split(rendered, "\n") {
			if i > 0 {
				rendered += "\n" + indent
			} else {
				rendered = indent
			}

			rendered += line
		}

		if feedbackCount == 0 {
			_, err := fmt.Fprintf(w, "\n%s\n\n", colors.Title("Feedback:"))
			if err != nil {
				panic(err)
			}
		}

		_, err := fmt.Fprintf(w, "%s (%s):\n\n%s\n\n", database.DisplayNode(item.On), item.Id, rendered)
		if err != nil {
			panic(err)
		}

		feedbackCount++
	}

	return feedbackCount
}

// Package feedback collects the diagnostics application produces. Application
// never stops at the first problem; items accumulate on a Reporter and are
// rendered in source order afterwards.
package feedback

import (
	"slices"

	"quill/database"
)

type Rank int

const (
	RankErrors Rank = iota
	RankAlwaysSucceeds
	RankStyle
)

type Item struct {
	Id     string
	Rank   Rank
	On     database.Node
	String func() string
}

type Reporter struct {
	db    *database.Db
	items []Item
}

func NewReporter(db *database.Db) *Reporter {
	return &Reporter{db: db}
}

func (reporter *Reporter) report(item Item) {
	reporter.items = append(reporter.items, item)
}

func (reporter *Reporter) HasErrors() bool {
	return slices.ContainsFunc(reporter.items, func(item Item) bool {
		return item.Rank == RankErrors
	})
}

// Items returns everything reported so far, sorted by source position and
// then by rank.
func (reporter *Reporter) Items() []Item {
	items := make([]Item, len(reporter.items))
	copy(items, reporter.items)

	slices.SortStableFunc(items, func(left Item, right Item) int {
		leftSpan := database.GetSpanFact(left.On)
		rightSpan := database.GetSpanFact(right.On)

		if cmp := database.CompareSpans(leftSpan, rightSpan); cmp != 0 {
			return cmp
		}

		return int(left.Rank) - int(right.Rank)
	})

	return items
}

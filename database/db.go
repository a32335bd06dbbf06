package database

import (
	"fmt"
	"io"
	"slices"
)

// Db is the arena that owns every tree node. Each registered node receives a
// stable integer id, so transient per-rewrite state can be keyed by id
// instead of node identity and survives in-place mutation of the tree.
type Db struct {
	parent *Db
	nodes  []Node
	ids    map[Node]int
	nextId int
}

func NewDb(parent *Db) *Db {
	db := &Db{
		parent: parent,
		nodes:  []Node{},
		ids:    map[Node]int{},
	}

	if parent != nil {
		db.nextId = parent.nextId
	}

	return db
}

func (db *Db) Register(node Node) int {
	if id, ok := db.ids[node]; ok {
		return id
	}

	id := db.nextId
	db.nextId++
	db.nodes = append(db.nodes, node)
	db.ids[node] = id
	return id
}

// Id returns the arena id of a registered node. Asking for an unregistered
// node is a logic error.
func (db *Db) Id(node Node) int {
	for current := db; current != nil; current = current.parent {
		if id, ok := current.ids[node]; ok {
			return id
		}
	}

	panic(fmt.Sprintf("node was never registered: %s", DisplayNode(node)))
}

func ContainsNode(db *Db, f func(node Node) bool) bool {
	for current := db; current != nil; current = current.parent {
		if slices.ContainsFunc(current.nodes, f) {
			return true
		}
	}

	return false
}

func (db *Db) Write(w io.Writer, filter func(node Node) bool) {
	nodes := make([]Node, len(db.nodes))
	copy(nodes, db.nodes)
	slices.SortStableFunc(nodes, func(left Node, right Node) int {
		return CompareSpans(GetSpanFact(left), GetSpanFact(right))
	})

	for _, node := range nodes {
		if IsHiddenNode(node) || (filter != nil && !filter(node)) {
			continue
		}

		_, err := fmt.Fprintf(w, "%v\n%v\n", DisplayNode(node), node.GetFacts())
		if err != nil {
			panic(err)
		}
	}
}

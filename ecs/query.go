package ecs

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// QueryNode is a node in a composable query tree, evaluated against an
// archetype Store's signature. This mirrors warehouse/query.go's
// QueryNode/compositeNode/leafNode tree almost exactly, substituting
// ComponentMask (roaring-backed) for mask.Mask and a *Store receiver for
// the teacher's Archetype+Storage pair, since our Store already knows its
// own mask.
type QueryNode interface {
	Evaluate(s *Store) bool
}

// QueryOperation is the boolean operator a compositeNode applies.
type QueryOperation int

const (
	OpAnd QueryOperation = iota
	OpOr
	OpNot
)

type compositeNode struct {
	op         QueryOperation
	children   []QueryNode
	components []Component
}

func (n *compositeNode) nodeMask() ComponentMask {
	m := NewComponentMask()
	for _, c := range n.components {
		m.Set(c.ID())
	}
	return m
}

// Evaluate implements QueryNode for compositeNode.
func (n *compositeNode) Evaluate(s *Store) bool {
	nodeMask := n.nodeMask()
	switch n.op {
	case OpAnd:
		if !s.mask.ContainsAll(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(s) {
				return false
			}
		}
		return true
	case OpOr:
		if s.mask.ContainsAny(nodeMask) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(s) {
				return true
			}
		}
		return false
	case OpNot:
		if len(n.children) == 0 {
			return s.mask.ContainsNone(nodeMask)
		}
		if len(n.components) > 0 && !s.mask.ContainsNone(nodeMask) {
			return false
		}
		for _, child := range n.children {
			if child.Evaluate(s) {
				return false
			}
		}
		return true
	}
	return false
}

// Query is the composable entry point for building a QueryNode tree.
type Query struct {
	root QueryNode
}

// NewQuery returns an empty query ready for And/Or/Not composition.
func NewQuery() *Query {
	return &Query{}
}

// And builds (and, if this is the query's first call, adopts as root) an
// AND node over items, which may be Components, []Component, or nested
// QueryNodes.
func (q *Query) And(items ...interface{}) QueryNode {
	return q.compose(OpAnd, items...)
}

// Or builds an OR node over items.
func (q *Query) Or(items ...interface{}) QueryNode {
	return q.compose(OpOr, items...)
}

// Not builds a NOT node over items.
func (q *Query) Not(items ...interface{}) QueryNode {
	return q.compose(OpNot, items...)
}

func (q *Query) compose(op QueryOperation, items ...interface{}) QueryNode {
	comps, children := processItems(items...)
	node := &compositeNode{op: op, components: comps, children: children}
	if q.root == nil {
		q.root = node
	}
	return node
}

// Evaluate implements QueryNode for Query itself, delegating to its root.
func (q *Query) Evaluate(s *Store) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(s)
}

func processItems(items ...interface{}) ([]Component, []QueryNode) {
	var comps []Component
	var children []QueryNode
	for _, item := range items {
		switch v := item.(type) {
		case Component:
			comps = append(comps, v)
		case []Component:
			comps = append(comps, v...)
		case QueryNode:
			children = append(children, v)
		default:
			panic(bark.AddTrace(fmt.Errorf(
				"invalid query item type: %T; only Component, []Component, or QueryNode are allowed", item)))
		}
	}
	return comps, children
}

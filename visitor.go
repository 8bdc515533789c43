// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

// Visitor receives the nodes of a graph walk by kind. Returning false
// stops the walk.
type Visitor interface {
	VisitLayer(l *Layer) bool
	VisitTransformMask(m *TransformMask) bool
	VisitFilterMask(m *FilterMask) bool
	VisitSelectionMask(m *SelectionMask) bool
}

// BaseVisitor visits every node and does nothing. Embed it to implement
// only the methods of interest.
type BaseVisitor struct{}

func (BaseVisitor) VisitLayer(*Layer) bool                 { return true }
func (BaseVisitor) VisitTransformMask(*TransformMask) bool { return true }
func (BaseVisitor) VisitFilterMask(*FilterMask) bool       { return true }
func (BaseVisitor) VisitSelectionMask(*SelectionMask) bool { return true }

// Walk visits n and its descendants depth first, parents before children
// and children bottom first. It reports whether the walk completed.
func Walk(n NodeRef, v Visitor) bool {
	node := n.Base()
	if !node.Accept(v) {
		return false
	}
	for _, c := range node.Children() {
		if !Walk(c, v) {
			return false
		}
	}
	return true
}

// transformMaskVisitor calls fn for every transform mask.
type transformMaskVisitor struct {
	BaseVisitor
	fn func(m *TransformMask) bool
}

func (v transformMaskVisitor) VisitTransformMask(m *TransformMask) bool {
	return v.fn(m)
}

// nameFinder stops at the first node with the given name.
type nameFinder struct {
	name  string
	found *Node
}

func (f *nameFinder) match(n *Node) bool {
	if n.Name() == f.name {
		f.found = n
		return false
	}
	return true
}

func (f *nameFinder) VisitLayer(l *Layer) bool                 { return f.match(l.Node) }
func (f *nameFinder) VisitTransformMask(m *TransformMask) bool { return f.match(m.Node) }
func (f *nameFinder) VisitFilterMask(m *FilterMask) bool       { return f.match(m.Node) }
func (f *nameFinder) VisitSelectionMask(m *SelectionMask) bool { return f.match(m.Node) }

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"weak"

	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/imagegraph/paint"
	"github.com/gogpu/imagegraph/region"
)

// NodeKind identifies the behavior attached to a node.
type NodeKind int

const (
	// KindPaintLayer is a layer with its own pixels.
	KindPaintLayer NodeKind = iota
	// KindGroupLayer is a layer composited from its child layers.
	KindGroupLayer
	// KindTransformMask transforms the pixels of its layer.
	KindTransformMask
	// KindFilterMask applies a filter to the pixels of its layer.
	KindFilterMask
	// KindSelectionMask stores a selection; it does not alter pixels.
	KindSelectionMask
)

// String returns a readable name for the kind.
func (k NodeKind) String() string {
	switch k {
	case KindPaintLayer:
		return "PaintLayer"
	case KindGroupLayer:
		return "GroupLayer"
	case KindTransformMask:
		return "TransformMask"
	case KindFilterMask:
		return "FilterMask"
	case KindSelectionMask:
		return "SelectionMask"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// IsMask reports whether nodes of this kind are masks.
func (k NodeKind) IsMask() bool {
	return k >= KindTransformMask
}

// Position tells a node where it sits relative to the node whose content
// changed during an update pass.
type Position int

const (
	// NFilthy marks the node that was edited.
	NFilthy Position = iota
	// NAboveFilthy marks nodes processed after the edited node.
	NAboveFilthy
	// NBelowFilthy marks nodes processed before the edited node.
	NBelowFilthy
)

// RenderFlags modify a projection update pass.
type RenderFlags uint8

const (
	// NoTransformMaskUpdates keeps transform masks from scheduling a
	// regeneration of their static cache during the pass.
	NoTransformMaskUpdates RenderFlags = 1 << iota

	// ExternalFrame renders a standalone frame. Transform masks neither
	// read nor reset their static cache in such a pass.
	ExternalFrame
)

// Behavior is the kind-specific part of a node.
//
// ChangeRect and NeedRect must depend only on the node's own parameters
// and the argument, so composing them over a stack is order independent
// within one pass. Both return an empty rect unchanged.
type Behavior interface {
	Kind() NodeKind

	// ChangeRect maps a rect of changed input pixels to the rect of
	// output pixels the node may affect.
	ChangeRect(rect image.Rectangle, pos Position) image.Rectangle

	// NeedRect maps a rect of wanted output pixels to the rect of input
	// pixels needed to compute it.
	NeedRect(rect image.Rectangle, pos Position) image.Rectangle

	// Accept calls the visitor method for the node kind.
	Accept(v Visitor) bool
}

// effectMask is a mask that rewrites the pixels of its layer.
type effectMask interface {
	Behavior
	DecorateRect(src, dst *paint.Device, rc image.Rectangle, pos Position, flags RenderFlags) image.Rectangle
}

// NodeRef is implemented by every node kind through the embedded *Node.
type NodeRef interface {
	Base() *Node
}

var nodeIDs atomic.Uint64

// treeMu guards the parent and children fields of every node. Tree edits
// are rare compared to reads, and a single lock keeps cycle checks atomic
// across two subtrees.
var treeMu sync.RWMutex

// Node is an element of the image graph. Every node kind embeds a *Node
// and installs itself as the behavior.
//
// Thread safety: Node is safe for concurrent use.
type Node struct {
	id       uint64
	image    weak.Pointer[Image]
	behavior Behavior

	mu      sync.RWMutex
	name    string
	visible bool
	opacity uint8

	// guarded by treeMu
	parent   *Node
	children []*Node
}

func newNode(img *Image, name string) *Node {
	return &Node{
		id:      nodeIDs.Add(1),
		image:   weak.Make(img),
		name:    norm.NFC.String(name),
		visible: true,
		opacity: 255,
	}
}

// Base returns n.
func (n *Node) Base() *Node { return n }

// ID returns the process-unique node id.
func (n *Node) ID() uint64 { return n.id }

// Behavior returns the kind-specific part of the node.
func (n *Node) Behavior() Behavior { return n.behavior }

// Kind returns the node kind.
func (n *Node) Kind() NodeKind { return n.behavior.Kind() }

// Image returns the owning image, or nil if it was garbage collected.
func (n *Node) Image() *Image { return n.image.Value() }

// ChangeRect forwards to the behavior.
func (n *Node) ChangeRect(rect image.Rectangle, pos Position) image.Rectangle {
	return n.behavior.ChangeRect(rect, pos)
}

// NeedRect forwards to the behavior.
func (n *Node) NeedRect(rect image.Rectangle, pos Position) image.Rectangle {
	return n.behavior.NeedRect(rect, pos)
}

// Accept forwards to the behavior.
func (n *Node) Accept(v Visitor) bool {
	return n.behavior.Accept(v)
}

// Name returns the node name in NFC form.
func (n *Node) Name() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.name
}

// SetName renames the node. The name is stored in NFC form so that
// FindNode matches canonically equivalent spellings.
func (n *Node) SetName(name string) {
	name = norm.NFC.String(name)
	n.mu.Lock()
	changed := n.name != name
	n.name = name
	n.mu.Unlock()

	if changed {
		n.notifyChanged()
	}
}

// Visible reports whether the node takes part in rendering.
func (n *Node) Visible() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.visible
}

// SetVisible shows or hides the node and refreshes what it covered.
func (n *Node) SetVisible(v bool) {
	n.mu.Lock()
	changed := n.visible != v
	n.visible = v
	n.mu.Unlock()

	if changed {
		n.notifyChanged()
		n.refreshFootprint()
	}
}

// Opacity returns the node opacity, 255 being opaque.
func (n *Node) Opacity() uint8 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.opacity
}

// SetOpacity changes the opacity and refreshes what the node covers.
func (n *Node) SetOpacity(o uint8) {
	n.mu.Lock()
	changed := n.opacity != o
	n.opacity = o
	n.mu.Unlock()

	if changed {
		n.notifyChanged()
		n.refreshFootprint()
	}
}

// SetDirty requests a projection update of rect starting at n.
func (n *Node) SetDirty(rect image.Rectangle) {
	if img := n.Image(); img != nil {
		img.RequestProjectionUpdate(n, rect)
	}
}

func (n *Node) notifyChanged() {
	if img := n.Image(); img != nil {
		img.router.NotifyNodeChanged(n)
	}
}

// refreshFootprint schedules an update of every pixel the node covers.
func (n *Node) refreshFootprint() {
	img := n.Image()
	if img == nil {
		return
	}
	target := n
	if n.Layer() == nil {
		l := n.ParentLayer()
		if l == nil {
			return
		}
		target = l.Base()
	}
	img.RequestProjectionUpdate(target, n.footprint())
}

// Layer returns the layer behind n, or nil for masks.
func (n *Node) Layer() *Layer {
	l, _ := n.behavior.(*Layer)
	return l
}

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node {
	treeMu.RLock()
	defer treeMu.RUnlock()
	return n.parent
}

// ParentLayer returns the parent when it is a layer.
func (n *Node) ParentLayer() *Layer {
	if p := n.Parent(); p != nil {
		return p.Layer()
	}
	return nil
}

// Children returns a snapshot of the children, bottom first.
func (n *Node) Children() []*Node {
	treeMu.RLock()
	defer treeMu.RUnlock()
	return append([]*Node(nil), n.children...)
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	treeMu.RLock()
	defer treeMu.RUnlock()
	return len(n.children)
}

// At returns the child at index i, or nil if i is out of range.
func (n *Node) At(i int) *Node {
	treeMu.RLock()
	defer treeMu.RUnlock()
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Index returns the position of child among the children, or -1.
func (n *Node) Index(child NodeRef) int {
	treeMu.RLock()
	defer treeMu.RUnlock()
	return indexOf(n.children, child.Base())
}

// PrevSibling returns the sibling directly below n, or nil.
func (n *Node) PrevSibling() *Node {
	treeMu.RLock()
	defer treeMu.RUnlock()
	if n.parent == nil {
		return nil
	}
	if i := indexOf(n.parent.children, n); i > 0 {
		return n.parent.children[i-1]
	}
	return nil
}

// NextSibling returns the sibling directly above n, or nil.
func (n *Node) NextSibling() *Node {
	treeMu.RLock()
	defer treeMu.RUnlock()
	if n.parent == nil {
		return nil
	}
	if i := indexOf(n.parent.children, n); i >= 0 && i+1 < len(n.parent.children) {
		return n.parent.children[i+1]
	}
	return nil
}

func indexOf(nodes []*Node, n *Node) int {
	for i, c := range nodes {
		if c == n {
			return i
		}
	}
	return -1
}

// AddChild appends child on top of the children of n.
func (n *Node) AddChild(child NodeRef) error {
	treeMu.RLock()
	i := len(n.children)
	treeMu.RUnlock()
	return n.insert(child.Base(), i, true)
}

// InsertChild inserts child at index i, 0 being the bottom.
func (n *Node) InsertChild(i int, child NodeRef) error {
	return n.insert(child.Base(), i, false)
}

func (n *Node) insert(c *Node, i int, clamp bool) error {
	if err := n.canHold(c); err != nil {
		return err
	}

	treeMu.Lock()
	if c.parent != nil {
		treeMu.Unlock()
		return fmt.Errorf("add %q: %w", c.Name(), ErrHasParent)
	}
	for p := n; p != nil; p = p.parent {
		if p == c {
			treeMu.Unlock()
			return fmt.Errorf("add %q: %w", c.Name(), ErrCycle)
		}
	}
	if clamp && i > len(n.children) {
		i = len(n.children)
	}
	if i < 0 || i > len(n.children) {
		l := len(n.children)
		treeMu.Unlock()
		return &IndexError{Index: i, Len: l}
	}
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c
	c.parent = n
	treeMu.Unlock()

	if img := n.Image(); img != nil {
		img.router.NotifyNodeAdded(c)
		c.refreshFootprint()
	}
	return nil
}

// canHold checks kinds and ownership: masks hold nothing, paint layers
// hold masks only and both nodes must belong to the same image.
func (n *Node) canHold(c *Node) error {
	if n.image != c.image {
		return fmt.Errorf("add %q: %w", c.Name(), ErrForeignNode)
	}
	switch n.Kind() {
	case KindGroupLayer:
		return nil
	case KindPaintLayer:
		if c.Kind().IsMask() {
			return nil
		}
	}
	return fmt.Errorf("add %s to %s: %w", c.Kind(), n.Kind(), ErrInvalidChild)
}

// RemoveChild detaches child from n. Frames and projections are refreshed
// for the area the child covered.
func (n *Node) RemoveChild(child NodeRef) error {
	c := child.Base()

	treeMu.RLock()
	attached := c.parent == n
	treeMu.RUnlock()
	if !attached {
		return fmt.Errorf("remove %q: %w", c.Name(), ErrNotChild)
	}

	// The footprint is measured while the child is still attached.
	img := n.Image()
	var rect image.Rectangle
	if img != nil {
		img.router.NotifyNodeRemoved(c)
		rect = c.footprint()
	}

	treeMu.Lock()
	if c.parent != n {
		treeMu.Unlock()
		return fmt.Errorf("remove %q: %w", c.Name(), ErrNotChild)
	}
	i := indexOf(n.children, c)
	n.children = append(n.children[:i], n.children[i+1:]...)
	c.parent = nil
	treeMu.Unlock()

	if img != nil && !rect.Empty() {
		img.RequestProjectionUpdate(n, rect)
	}
	return nil
}

// footprint returns the area of the parent output that depends on n.
func (n *Node) footprint() image.Rectangle {
	if n.Kind() == KindSelectionMask {
		return image.Rectangle{}
	}
	if l := n.Layer(); l != nil {
		return l.OutputBounds()
	}
	if l := n.ParentLayer(); l != nil {
		return region.Union(l.OutputBounds(), l.ExactBounds())
	}
	return image.Rectangle{}
}

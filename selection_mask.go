// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"image"

	"github.com/gogpu/imagegraph/paint"
)

// SelectionMask stores a selection in an alpha device. It never alters the
// pixels of its layer, so its rects are the identity and adding or
// removing it keeps rendered frames.
type SelectionMask struct {
	*Node

	selection *paint.Device
}

// NewSelectionMask creates a detached selection mask.
func NewSelectionMask(img *Image, name string) *SelectionMask {
	m := &SelectionMask{Node: newNode(img, name)}
	m.behavior = m
	_, bounds := deviceDefaults(img)
	m.selection = paint.NewDevice(paint.Alpha8, bounds)
	return m
}

// Kind returns KindSelectionMask.
func (m *SelectionMask) Kind() NodeKind { return KindSelectionMask }

// Accept calls v.VisitSelectionMask.
func (m *SelectionMask) Accept(v Visitor) bool { return v.VisitSelectionMask(m) }

// Selection returns the selection device.
func (m *SelectionMask) Selection() *paint.Device { return m.selection }

// ChangeRect returns rect.
func (m *SelectionMask) ChangeRect(rect image.Rectangle, _ Position) image.Rectangle {
	return rect
}

// NeedRect returns rect.
func (m *SelectionMask) NeedRect(rect image.Rectangle, _ Position) image.Rectangle {
	return rect
}

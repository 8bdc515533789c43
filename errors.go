// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for the graph and image API.
var (
	// ErrHasParent is returned when adding a node that is already attached.
	ErrHasParent = errors.New("imagegraph: node already has a parent")

	// ErrCycle is returned when adding a node to itself or to one of its
	// descendants.
	ErrCycle = errors.New("imagegraph: node would become its own ancestor")

	// ErrNotChild is returned when removing a node from a parent it is not
	// attached to.
	ErrNotChild = errors.New("imagegraph: node is not a child")

	// ErrInvalidChild is returned when a node kind cannot hold the child:
	// masks hold no children and paint layers only hold masks.
	ErrInvalidChild = errors.New("imagegraph: node cannot hold this child")

	// ErrForeignNode is returned when linking nodes created for different
	// images.
	ErrForeignNode = errors.New("imagegraph: node belongs to another image")

	// ErrNilParams is returned when nil transform parameters are passed.
	ErrNilParams = errors.New("imagegraph: nil transform params")

	// ErrImageClosed is returned by operations on a closed image.
	ErrImageClosed = errors.New("imagegraph: image closed")

	// ErrInvalidSize is returned for non-positive image dimensions.
	ErrInvalidSize = errors.New("imagegraph: invalid image size")
)

// IndexError is returned when a child index is out of range.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("imagegraph: child index %d out of range [0,%d]", e.Index, e.Len)
}

// safeAssert logs a violated invariant at error level and reports whether
// cond held. Callers skip the operation when it returns false.
func safeAssert(cond bool, msg string, args ...any) bool {
	if !cond {
		Logger().Error("imagegraph: assertion failed: "+msg, args...)
	}
	return cond
}

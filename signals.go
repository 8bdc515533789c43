// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import "fmt"

// SignalID discriminates the kinds of ImageSignal.
type SignalID int

const (
	// LayersChanged reports a structural change of the layer stack.
	LayersChanged SignalID = iota
	// ModifiedWithoutUndo reports a change that bypassed the undo history.
	ModifiedWithoutUndo
	// SizeChanged reports new image bounds.
	SizeChanged
	// ProfileChanged reports a new color profile.
	ProfileChanged
	// ColorSpaceChanged reports a new color space.
	ColorSpaceChanged
	// ResolutionChanged reports a new resolution.
	ResolutionChanged
	// NodeReselectionRequest asks the UI to select other nodes.
	NodeReselectionRequest
)

var signalNames = [...]string{
	LayersChanged:          "LayersChanged",
	ModifiedWithoutUndo:    "ModifiedWithoutUndo",
	SizeChanged:            "SizeChanged",
	ProfileChanged:         "ProfileChanged",
	ColorSpaceChanged:      "ColorSpaceChanged",
	ResolutionChanged:      "ResolutionChanged",
	NodeReselectionRequest: "NodeReselectionRequest",
}

func (id SignalID) String() string {
	if id >= 0 && int(id) < len(signalNames) {
		return signalNames[id]
	}
	return fmt.Sprintf("SignalID(%d)", int(id))
}

// StillPoint is the point of an image that keeps its place on screen
// across a size change.
type StillPoint struct {
	X, Y float64
}

// SizeChange is the payload of SizeChanged.
type SizeChange struct {
	OldStillPoint StillPoint
	NewStillPoint StillPoint
}

// Reselection is the payload of NodeReselectionRequest.
type Reselection struct {
	ActiveNode    *Node
	SelectedNodes []*Node
}

// ImageSignal is a notification passed through the SignalRouter. Only
// the payload matching ID is meaningful.
type ImageSignal struct {
	ID          SignalID
	Size        SizeChange
	Reselection Reselection
}

// Signal returns a signal without payload.
func Signal(id SignalID) ImageSignal {
	return ImageSignal{ID: id}
}

// SizeChangedSignal returns a SizeChanged signal.
func SizeChangedSignal(oldStill, newStill StillPoint) ImageSignal {
	return ImageSignal{
		ID:   SizeChanged,
		Size: SizeChange{OldStillPoint: oldStill, NewStillPoint: newStill},
	}
}

// ReselectionSignal returns a NodeReselectionRequest signal.
func ReselectionSignal(active *Node, selected []*Node) ImageSignal {
	return ImageSignal{
		ID:          NodeReselectionRequest,
		Reselection: Reselection{ActiveNode: active, SelectedNodes: selected},
	}
}

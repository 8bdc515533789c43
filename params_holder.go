// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"sync"

	"github.com/gogpu/imagegraph/paint"
)

// paramsHolder keeps the full resolution params of a transform mask and
// their copy scaled for the level-of-detail preview.
type paramsHolder struct {
	bounds paint.DefaultBounds

	mu        sync.RWMutex
	params    TransformParams
	lodParams TransformParams
}

func newParamsHolder(bounds paint.DefaultBounds, params TransformParams) *paramsHolder {
	if bounds == nil {
		bounds = paint.FixedBounds{}
	}
	return &paramsHolder{bounds: bounds, params: params}
}

// bake returns the params for the current level of detail.
func (h *paramsHolder) bake() TransformParams {
	lod := h.bounds.CurrentLevelOfDetail()
	h.mu.RLock()
	defer h.mu.RUnlock()
	if lod > 0 && h.lodParams != nil {
		return h.lodParams
	}
	return h.params
}

// setAtCurrentLod stores p as the params of the current level of detail.
// The other level follows by scaling.
func (h *paramsHolder) setAtCurrentLod(p TransformParams) {
	lod := h.bounds.CurrentLevelOfDetail()
	h.mu.Lock()
	defer h.mu.Unlock()
	if lod > 0 {
		h.lodParams = p
		h.params = p.ScaledForLod(-lod)
		return
	}
	h.params = p
	h.lodParams = nil
}

// syncLodCache rebuilds the preview params from the full resolution ones.
func (h *paramsHolder) syncLodCache() {
	lod := h.bounds.CurrentLevelOfDetail()
	h.mu.Lock()
	defer h.mu.Unlock()
	if lod > 0 {
		h.lodParams = h.params.ScaledForLod(lod)
	} else {
		h.lodParams = nil
	}
}

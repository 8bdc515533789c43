// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"context"

	"github.com/gogpu/imagegraph/region"
)

// regenerationJob re-renders the static cache of a transform mask and
// pushes the result to the ancestors. It is exclusive: it rewrites the
// projection of the mask's layer, which ordinary update jobs read.
type regenerationJob struct {
	mask *TransformMask
}

func (j *regenerationJob) Exclusive() bool { return true }

func (j *regenerationJob) Name() string { return "regenerate " + j.mask.Name() }

func (j *regenerationJob) Run(context.Context) {
	m := j.mask

	// Structural edits may have overtaken the job. The extra rects stay
	// queued until the mask is regenerated in a layer again.
	l := m.ParentLayer()
	if l == nil {
		return
	}
	img := m.Image()
	if img == nil {
		return
	}

	img.updateMu.Lock()
	defer img.updateMu.Unlock()

	// Queued rects are refreshed even when there is nothing to regenerate.
	extra := m.extraRects.TakeRect()
	if !m.Visible() || m.StaticImageCacheIsValid() {
		if !extra.Empty() {
			img.propagateLocked(l.Node, extra, true)
		}
		return
	}

	m.RecalculateStaticImage()

	rect := region.Union(l.Projection().ExactBounds(), extra)
	Logger().Debug("imagegraph: static image regenerated", "mask", m.Name(), "rect", rect)
	img.propagateLocked(l.Node, rect, true)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package imagegraph

import (
	"time"

	"github.com/gogpu/imagegraph/internal/clock"
	"github.com/gogpu/imagegraph/paint"
)

// Defaults used by NewImage.
const (
	// DefaultOffBoundsReadArea is the fraction of the image size that
	// transforms may read beyond each image edge.
	DefaultOffBoundsReadArea = 0.5

	// DefaultStaticUpdateDelay is the quiescence delay after which a
	// transform mask regenerates its static cache.
	DefaultStaticUpdateDelay = 3000 * time.Millisecond

	// DefaultSignalQueueWarnLimit is the queued signal count above which
	// the router logs a warning.
	DefaultSignalQueueWarnLimit = 1024

	// DefaultResolution is the default resolution in pixels per inch.
	DefaultResolution = 72.0
)

// ImageOption configures an Image during creation.
//
// Example:
//
//	img, err := imagegraph.NewImage(1920, 1080,
//	    imagegraph.WithWorkers(4),
//	    imagegraph.WithStaticUpdateDelay(500*time.Millisecond),
//	)
type ImageOption func(*imageOptions)

type imageOptions struct {
	workers              int
	offBoundsReadArea    float64
	staticUpdateDelay    time.Duration
	clock                clock.Clock
	frameCacheCapacity   int
	signalQueueWarnLimit int
	colorSpace           paint.ColorSpace
	xRes, yRes           float64
}

func defaultImageOptions() imageOptions {
	return imageOptions{
		offBoundsReadArea:    DefaultOffBoundsReadArea,
		staticUpdateDelay:    DefaultStaticUpdateDelay,
		clock:                clock.Real(),
		signalQueueWarnLimit: DefaultSignalQueueWarnLimit,
		colorSpace:           paint.RGBA8,
		xRes:                 DefaultResolution,
		yRes:                 DefaultResolution,
	}
}

// WithWorkers sets the number of update jobs that may run at once and the
// size of the compositing worker pool. 0 means GOMAXPROCS.
func WithWorkers(n int) ImageOption {
	return func(o *imageOptions) {
		o.workers = n
	}
}

// WithOffBoundsReadArea sets the margin, as a fraction of the image size,
// that transform masks may read and write beyond the image bounds.
// Negative values are ignored.
func WithOffBoundsReadArea(ratio float64) ImageOption {
	return func(o *imageOptions) {
		if ratio >= 0 {
			o.offBoundsReadArea = ratio
		}
	}
}

// WithStaticUpdateDelay sets how long a transform mask waits after the
// last change before regenerating its static cache.
func WithStaticUpdateDelay(d time.Duration) ImageOption {
	return func(o *imageOptions) {
		if d >= 0 {
			o.staticUpdateDelay = d
		}
	}
}

// WithClock sets the clock driving delayed updates. Tests use a manual
// clock to make regeneration deterministic.
func WithClock(c clock.Clock) ImageOption {
	return func(o *imageOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithFrameCacheCapacity sets the per-shard capacity of the rendered frame
// cache. 0 means the cache default.
func WithFrameCacheCapacity(n int) ImageOption {
	return func(o *imageOptions) {
		o.frameCacheCapacity = n
	}
}

// WithSignalQueueWarnLimit sets the queued signal count above which the
// router warns that the owning loop does not drain it.
func WithSignalQueueWarnLimit(n int) ImageOption {
	return func(o *imageOptions) {
		if n > 0 {
			o.signalQueueWarnLimit = n
		}
	}
}

// WithColorSpace sets the color space of the image and its layers.
func WithColorSpace(cs paint.ColorSpace) ImageOption {
	return func(o *imageOptions) {
		if !cs.IsZero() {
			o.colorSpace = cs
		}
	}
}

// WithResolution sets the horizontal and vertical resolution in pixels
// per inch.
func WithResolution(xRes, yRes float64) ImageOption {
	return func(o *imageOptions) {
		if xRes > 0 && yRes > 0 {
			o.xRes, o.yRes = xRes, yRes
		}
	}
}

package models

import "time"

// BlurOptions are the per-request knobs of the blur pipeline.
type BlurOptions struct {
	Radius      int
	ResizeRatio float64
	Restore     bool
}

type ProcessingTimings struct {
	RequestID   string
	ImageDecode time.Duration
	Resize      time.Duration
	Pack        time.Duration
	Blur        time.Duration
	Restore     time.Duration
	Encode      time.Duration
	Total       time.Duration
}

package swipe

import (
	"math"
	"time"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

// Gesture constants. Thresholds are fixed pixels and do not depend on the viewport.
const (
	ThresholdX      = 120.0 // horizontal displacement needed to go long/short
	ThresholdY      = 120.0 // vertical displacement needed to skip
	IntensityRange  = 140.0 // |x| at which visual feedback saturates
	RotationDivisor = 15.0  // card rotation in degrees = x / RotationDivisor

	DragBound      = 300.0 // displayed offset bound on each axis
	EdgeResistance = 0.8   // fraction of overshoot absorbed past DragBound

	DefaultViewportWidth = 600.0
	SkipExitY            = -400.0
	ExitRotation         = 15.0
	ExitDuration         = 350 * time.Millisecond
	EnterDuration        = 300 * time.Millisecond
)

// Classify resolves a released drag into an outcome.
// ok is false when the drag is below threshold or points downwards.
func Classify(x, y float64) (outcome types.Outcome, ok bool) {
	ax, ay := math.Abs(x), math.Abs(y)
	if ax < ThresholdX && ay < ThresholdY {
		return "", false
	}
	if ax >= ay {
		if x > 0 {
			return types.OutcomeLong, true
		}
		return types.OutcomeShort, true
	}
	if y < 0 {
		return types.OutcomeSkip, true
	}
	return "", false
}

// Intensity maps horizontal displacement to [0,1].
func Intensity(x float64) float64 {
	return math.Min(1, math.Abs(x)/IntensityRange)
}

// Rotation is the cosmetic card tilt in degrees for a horizontal offset.
func Rotation(x float64) float64 {
	return x / RotationDivisor
}

// Sign returns -1, 0 or +1.
func Sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// resist applies edge resistance past DragBound. It is monotonic, so it never
// changes which axis dominates or which side of a threshold a value is on.
func resist(v float64) float64 {
	av := math.Abs(v)
	if av <= DragBound {
		return v
	}
	return float64(Sign(v)) * (DragBound + (av-DragBound)*(1-EdgeResistance))
}

// Exit describes where a card travels when an outcome is resolved, how long the
// next card takes to fade in, and the tone a renderer plays for long or short.
type Exit struct {
	X             float64       `json:"x"`
	Y             float64       `json:"y"`
	Rotation      float64       `json:"rotation"`
	Duration      time.Duration `json:"duration"`
	EnterDuration time.Duration `json:"enter_duration"`
	Tone          *Tone         `json:"tone,omitempty"`
}

// ExitTarget computes the exit vector for an outcome. viewportWidth <= 0 falls
// back to DefaultViewportWidth. The result is cosmetic only.
func ExitTarget(outcome types.Outcome, viewportWidth float64) Exit {
	w := viewportWidth
	if w <= 0 {
		w = DefaultViewportWidth
	}
	switch outcome {
	case types.OutcomeLong:
		tone := LongTone
		return Exit{X: w, Rotation: ExitRotation, Duration: ExitDuration, EnterDuration: EnterDuration, Tone: &tone}
	case types.OutcomeShort:
		tone := ShortTone
		return Exit{X: -w, Rotation: -ExitRotation, Duration: ExitDuration, EnterDuration: EnterDuration, Tone: &tone}
	case types.OutcomeSkip:
		return Exit{Y: SkipExitY, Duration: ExitDuration, EnterDuration: EnterDuration}
	}
	return Exit{}
}

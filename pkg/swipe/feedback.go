package swipe

import "math"

// Colours used by the renderer.
const (
	ColorLongGlow   = "rgb(16,185,129)" // emerald
	ColorShortGlow  = "rgb(244,63,94)"  // rose
	ColorLongTitle  = "#6ee7b7"
	ColorShortTitle = "#fda4af"
	ColorTitleRest  = "#ffffff"
)

// Vibration patterns in milliseconds.
var (
	LongVibration  = []int{10, 30, 10}
	ShortVibration = []int{10, 40}
)

// Tone describes the short oscillator sweep played on commit.
type Tone struct {
	Waveform  string  `json:"waveform"`
	StartHz   float64 `json:"start_hz"`
	EndHz     float64 `json:"end_hz"`
	SweepSec  float64 `json:"sweep_sec"`
	PeakGain  float64 `json:"peak_gain"`
	StopAfter float64 `json:"stop_after"`
}

var (
	LongTone  = Tone{Waveform: "sawtooth", StartHz: 560, EndHz: 920, SweepSec: 0.12, PeakGain: 0.25, StopAfter: 0.22}
	ShortTone = Tone{Waveform: "square", StartHz: 260, EndHz: 180, SweepSec: 0.12, PeakGain: 0.25, StopAfter: 0.22}
)

// FeedbackSink plays environment-dependent feedback. Implementations must not block.
type FeedbackSink interface {
	PlayLong()
	PlayShort()
	Vibrate(pattern []int)
}

// NopFeedback ignores all feedback.
type NopFeedback struct{}

func (NopFeedback) PlayLong()     {}
func (NopFeedback) PlayShort()    {}
func (NopFeedback) Vibrate([]int) {}

// Glow is the card box-shadow halo.
type Glow struct {
	BlurPx   float64 `json:"blur_px"`
	SpreadPx float64 `json:"spread_px"`
	Alpha    float64 `json:"alpha"`
	Color    string  `json:"color,omitempty"`
}

// Badge is a LONG/SHORT overlay badge.
type Badge struct {
	Opacity float64 `json:"opacity"`
	Scale   float64 `json:"scale"`
	Blurred bool    `json:"blurred"`
}

// Title is the headline emphasis.
type Title struct {
	LetterSpacingPx int     `json:"letter_spacing_px"`
	Scale           float64 `json:"scale"`
	SkewX           float64 `json:"skew_x"`
	Color           string  `json:"color"`
	GlowPx          float64 `json:"glow_px"`
	GlowAlpha       float64 `json:"glow_alpha"`
}

// VisualState is what the renderer draws for a given drag offset.
type VisualState struct {
	Direction  int     `json:"direction"`
	Intensity  float64 `json:"intensity"`
	Rotation   float64 `json:"rotation"`
	Glow       Glow    `json:"glow"`
	LongBadge  Badge   `json:"long_badge"`
	ShortBadge Badge   `json:"short_badge"`
	Title      Title   `json:"title"`
}

var (
	restBadge = Badge{Opacity: 0, Scale: 0.85, Blurred: true}
	dimBadge  = Badge{Opacity: 0.05, Scale: 0.85, Blurred: true}
	restTitle = Title{Scale: 1, Color: ColorTitleRest}
)

// ComputeVisualFeedback maps a drag offset to the visual state. It is pure so the
// renderer can sample it every frame.
func ComputeVisualFeedback(offset Offset, reducedMotion bool) VisualState {
	dir := Sign(offset.X)
	i := Intensity(offset.X)
	vs := VisualState{
		Direction:  dir,
		Intensity:  i,
		Rotation:   Rotation(offset.X),
		LongBadge:  restBadge,
		ShortBadge: restBadge,
		Title:      restTitle,
	}
	if dir == 0 {
		return vs
	}

	vs.Glow = Glow{
		BlurPx:   12 + i*26,
		SpreadPx: i * 10,
		Alpha:    0.35 + i*0.4,
	}
	active := Badge{Opacity: 0.15 + i*0.85, Scale: 0.9 + i*0.25}
	title := Title{
		LetterSpacingPx: int(math.Round(0.5 + i*1.5)),
		Scale:           1 + i*0.06,
		SkewX:           float64(dir) * i * 4,
		GlowPx:          2 + i*10,
		GlowAlpha:       0.55 + i*0.35,
	}

	if dir > 0 {
		vs.Glow.Color = ColorLongGlow
		vs.LongBadge, vs.ShortBadge = active, dimBadge
		title.Color = ColorLongTitle
	} else {
		vs.Glow.Color = ColorShortGlow
		vs.ShortBadge, vs.LongBadge = active, dimBadge
		title.Color = ColorShortTitle
	}
	if !reducedMotion {
		vs.Title = title
	}
	return vs
}

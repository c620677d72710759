package swipe

import (
	"math"
	"testing"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float64
		want   types.Outcome
		wantOK bool
	}{
		{name: "rest", x: 0, y: 0},
		{name: "below threshold", x: 119, y: -119},
		{name: "below threshold negative", x: -119.9, y: 119.9},
		{name: "long", x: 200, y: 10, want: types.OutcomeLong, wantOK: true},
		{name: "short", x: -150, y: 5, want: types.OutcomeShort, wantOK: true},
		{name: "skip", x: 10, y: -200, want: types.OutcomeSkip, wantOK: true},
		{name: "downward cancels", x: 0, y: 200},
		{name: "downward with small x cancels", x: 50, y: 130},
		{name: "exact x threshold", x: 120, y: 0, want: types.OutcomeLong, wantOK: true},
		{name: "exact y threshold up", x: 0, y: -120, want: types.OutcomeSkip, wantOK: true},
		{name: "tie goes horizontal long", x: 150, y: -150, want: types.OutcomeLong, wantOK: true},
		{name: "tie goes horizontal short", x: -150, y: 150, want: types.OutcomeShort, wantOK: true},
		{name: "vertical dominates upward", x: 149, y: -150, want: types.OutcomeSkip, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.x, tt.y)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Classify(%v, %v) = (%q, %v), want (%q, %v)", tt.x, tt.y, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIntensity(t *testing.T) {
	tests := []struct {
		x    float64
		want float64
	}{
		{0, 0},
		{70, 0.5},
		{-70, 0.5},
		{140, 1},
		{280, 1},
		{-1000, 1},
	}
	for _, tt := range tests {
		if got := Intensity(tt.x); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Intensity(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}

	prev := -1.0
	for x := 0.0; x <= 300; x += 5 {
		got := Intensity(x)
		if got < prev {
			t.Fatalf("Intensity not monotonic at x=%v: %v < %v", x, got, prev)
		}
		if got < 0 || got > 1 {
			t.Fatalf("Intensity(%v) = %v out of [0,1]", x, got)
		}
		prev = got
	}
}

func TestResistPreservesOrdering(t *testing.T) {
	if got := resist(250); got != 250 {
		t.Errorf("resist(250) = %v, want 250", got)
	}
	if got := resist(400); math.Abs(got-320) > 1e-9 {
		t.Errorf("resist(400) = %v, want 320", got)
	}
	if got := resist(-400); math.Abs(got+320) > 1e-9 {
		t.Errorf("resist(-400) = %v, want -320", got)
	}
	if resist(500) <= resist(450) {
		t.Error("resist must be monotonic")
	}
}

func TestExitTarget(t *testing.T) {
	long := ExitTarget(types.OutcomeLong, 1024)
	if long.X != 1024 || long.Rotation != ExitRotation {
		t.Errorf("long exit = %+v", long)
	}
	short := ExitTarget(types.OutcomeShort, 0)
	if short.X != -DefaultViewportWidth || short.Rotation != -ExitRotation {
		t.Errorf("short exit with no viewport = %+v", short)
	}
	skip := ExitTarget(types.OutcomeSkip, 1024)
	if skip.X != 0 || skip.Y != SkipExitY {
		t.Errorf("skip exit = %+v", skip)
	}
	if skip.Duration != ExitDuration {
		t.Errorf("skip exit duration = %v, want %v", skip.Duration, ExitDuration)
	}
}

func TestExitTargetTransitionAndTone(t *testing.T) {
	tests := []struct {
		outcome  types.Outcome
		wantTone *Tone
	}{
		{types.OutcomeLong, &LongTone},
		{types.OutcomeShort, &ShortTone},
		{types.OutcomeSkip, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			exit := ExitTarget(tt.outcome, 0)
			if exit.EnterDuration != EnterDuration {
				t.Errorf("enter duration = %v, want %v", exit.EnterDuration, EnterDuration)
			}
			switch {
			case tt.wantTone == nil && exit.Tone != nil:
				t.Errorf("unexpected tone %+v", *exit.Tone)
			case tt.wantTone != nil && (exit.Tone == nil || *exit.Tone != *tt.wantTone):
				t.Errorf("tone = %v, want %+v", exit.Tone, *tt.wantTone)
			}
		})
	}

	exit := ExitTarget(types.OutcomeLong, 0)
	exit.Tone.EndHz = 1
	if LongTone.EndHz != 920 {
		t.Error("ExitTarget must not share the package tone")
	}
}

package market

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

const (
	// BaseInterval is the spacing of the synthetic base series.
	BaseInterval = time.Minute
	// DefaultPoints is the base series length and the trim limit for Extend.
	DefaultPoints = 200
)

// Timeframe is a candle width.
type Timeframe string

const (
	Timeframe1m Timeframe = "1m"
	Timeframe5m Timeframe = "5m"
	Timeframe1h Timeframe = "1h"
	Timeframe1d Timeframe = "1d"
)

// ParseTimeframe validates s. An empty string means 1m.
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(s); tf {
	case "":
		return Timeframe1m, nil
	case Timeframe1m, Timeframe5m, Timeframe1h, Timeframe1d:
		return tf, nil
	default:
		return "", fmt.Errorf("unknown timeframe %q", s)
	}
}

// Duration returns the candle width.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case Timeframe5m:
		return 5 * time.Minute
	case Timeframe1h:
		return time.Hour
	case Timeframe1d:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// Point is one sample of the base series.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Candle aggregates consecutive points.
type Candle struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// GenerateBaseSeries builds a mock 1m series ending at now that random-walks
// from basePrice with a small sinusoidal wobble.
func GenerateBaseSeries(basePrice float64, points int, now time.Time, rng *rand.Rand) []Point {
	if points <= 0 {
		return nil
	}
	first := now.Add(-time.Duration(points) * BaseInterval)
	series := make([]Point, points)
	value := basePrice
	for i := range series {
		drift := (rng.Float64() - 0.5) * 2
		noise := math.Sin(float64(i)/5) * 2
		value += drift + noise*0.1
		series[i] = Point{Time: first.Add(time.Duration(i) * BaseInterval), Value: value}
	}
	return series
}

// Extend appends one point after the last and drops the oldest beyond max.
func Extend(series []Point, max int, rng *rand.Rand) []Point {
	if len(series) == 0 {
		return series
	}
	last := series[len(series)-1]
	next := Point{
		Time:  last.Time.Add(BaseInterval),
		Value: last.Value + (rng.Float64()-0.5)*2,
	}
	out := append(append(make([]Point, 0, len(series)+1), series...), next)
	if max > 0 && len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}

// Aggregate groups the last DefaultPoints samples into candles of tf. Each candle
// is stamped with the time of its last sample.
func Aggregate(series []Point, tf Timeframe) []Candle {
	if len(series) > DefaultPoints {
		series = series[len(series)-DefaultPoints:]
	}
	group := int(math.Round(float64(tf.Duration()) / float64(BaseInterval)))
	if group < 1 {
		group = 1
	}

	candles := make([]Candle, 0, len(series)/group+1)
	for i := 0; i < len(series); i += group {
		end := i + group
		if end > len(series) {
			end = len(series)
		}
		chunk := series[i:end]
		c := Candle{
			Time:  chunk[len(chunk)-1].Time,
			Open:  chunk[0].Value,
			Close: chunk[len(chunk)-1].Value,
			High:  chunk[0].Value,
			Low:   chunk[0].Value,
		}
		for _, p := range chunk[1:] {
			c.High = math.Max(c.High, p.Value)
			c.Low = math.Min(c.Low, p.Value)
		}
		candles = append(candles, c)
	}
	return candles
}

package signal

import (
	"math"

	"github.com/Alias1177/fastloop/models"
)

// Momentum computes the percent change of the last close against the close
// lookback candles earlier. When volumeWeighted is set, Confidence reflects how
// the volume inside the lookback compares with the whole series.
//
// Bad input never panics: the returned signal carries NaN momentum and a
// Reason instead.
func Momentum(candles []models.Candle, lookback int, volumeWeighted bool) models.Signal {
	sig := models.Signal{Confidence: 1}

	n := len(candles)
	if n < 2 || lookback < 1 {
		sig.MomentumPct = math.NaN()
		sig.Reason = "not enough candles"
		return sig
	}

	refIdx := n - 1 - lookback
	if refIdx < 0 {
		refIdx = 0
	}
	ref := candles[refIdx].Close
	last := candles[n-1].Close
	sig.Price = last

	if !usable(ref) || ref <= 0 {
		sig.MomentumPct = math.NaN()
		sig.Reason = "reference price missing"
		return sig
	}
	if !usable(last) || last <= 0 {
		sig.MomentumPct = math.NaN()
		sig.Reason = "latest price missing"
		return sig
	}

	sig.MomentumPct = (last - ref) / ref * 100

	if volumeWeighted {
		ratio, ok := VolumeRatio(candles, refIdx+1)
		if ok {
			sig.VolumeRatio = ratio
			sig.Confidence = clamp01(ratio)
		}
	}
	return sig
}

// VolumeRatio returns mean volume of candles[from:] over mean volume of the
// whole series. ok is false when there is no usable volume data.
func VolumeRatio(candles []models.Candle, from int) (float64, bool) {
	if from < 0 || from >= len(candles) {
		return 0, false
	}
	recent, okRecent := meanVolume(candles[from:])
	baseline, okBase := meanVolume(candles)
	if !okRecent || !okBase || baseline <= 0 {
		return 0, false
	}
	return recent / baseline, true
}

func meanVolume(candles []models.Candle) (float64, bool) {
	var sum float64
	var count int
	for _, c := range candles {
		if !usable(c.Volume) || c.Volume < 0 {
			continue
		}
		sum += c.Volume
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package models

import (
	"fmt"
	"time"
)

// VolumeBaselineMinutes is how much history beyond the lookback is fetched to
// form the volume baseline.
const VolumeBaselineMinutes = 30

// MaxLookbackMinutes keeps a cycle's candle request within a single page of
// every feed. Coinbase serves at most 300 one-minute candles per call.
const MaxLookbackMinutes = 240

// WindowDuration converts a window label like "5m" into its duration.
func WindowDuration(window string) (time.Duration, error) {
	switch window {
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	}
	return 0, fmt.Errorf("unsupported window %q", window)
}

// WindowStart returns the start of the window containing t.
func WindowStart(t time.Time, d time.Duration) time.Time {
	return t.UTC().Truncate(d)
}

// CandlesForLookback returns how many one-minute candles a cycle needs.
func CandlesForLookback(lookbackMinutes int, withVolumeBaseline bool) int {
	n := lookbackMinutes + 1
	if withVolumeBaseline {
		n += VolumeBaselineMinutes
	}
	return n
}

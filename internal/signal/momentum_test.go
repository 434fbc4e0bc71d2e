package signal

import (
	"math"
	"testing"
	"time"

	"github.com/Alias1177/fastloop/models"
)

func series(closes []float64, volumes []float64) []models.Candle {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, len(closes))
	for i := range closes {
		candles[i] = models.Candle{
			Time:   start.Add(time.Duration(i) * time.Minute),
			Close:  closes[i],
			Volume: volumes[i],
		}
	}
	return candles
}

func TestMomentum(t *testing.T) {
	tests := []struct {
		name     string
		closes   []float64
		volumes  []float64
		lookback int
		weighted bool
		wantPct  float64
		wantConf float64
		wantNaN  bool
	}{
		{
			name:     "rising over lookback",
			closes:   []float64{90, 100, 100.2, 100.4, 100.8},
			volumes:  []float64{1, 1, 1, 1, 1},
			lookback: 3,
			wantPct:  0.8,
			wantConf: 1,
		},
		{
			name:     "lookback longer than series uses oldest",
			closes:   []float64{100, 99},
			volumes:  []float64{1, 1},
			lookback: 10,
			wantPct:  -1,
			wantConf: 1,
		},
		{
			name:     "thin recent volume lowers confidence",
			closes:   []float64{100, 100, 100, 101},
			volumes:  []float64{10, 10, 1, 1},
			lookback: 2,
			weighted: true,
			wantPct:  1,
			wantConf: 1.0 / 5.5,
		},
		{
			name:     "heavy recent volume caps at one",
			closes:   []float64{100, 100, 101},
			volumes:  []float64{1, 1, 10},
			lookback: 1,
			weighted: true,
			wantPct:  1,
			wantConf: 1,
		},
		{
			name:     "single candle",
			closes:   []float64{100},
			volumes:  []float64{1},
			lookback: 5,
			wantNaN:  true,
		},
		{
			name:     "missing reference",
			closes:   []float64{math.NaN(), 100, 101},
			volumes:  []float64{1, 1, 1},
			lookback: 2,
			wantNaN:  true,
		},
		{
			name:     "missing latest",
			closes:   []float64{100, 100, math.NaN()},
			volumes:  []float64{1, 1, 1},
			lookback: 2,
			wantNaN:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Momentum(series(tt.closes, tt.volumes), tt.lookback, tt.weighted)
			if tt.wantNaN {
				if !math.IsNaN(sig.MomentumPct) || sig.Reason == "" || sig.Valid() {
					t.Fatalf("Momentum() = %+v, want NaN with reason", sig)
				}
				return
			}
			if math.Abs(sig.MomentumPct-tt.wantPct) > 1e-9 {
				t.Errorf("MomentumPct = %v, want %v", sig.MomentumPct, tt.wantPct)
			}
			if math.Abs(sig.Confidence-tt.wantConf) > 1e-9 {
				t.Errorf("Confidence = %v, want %v", sig.Confidence, tt.wantConf)
			}
		})
	}
}

func TestVolumeRatioWithoutVolume(t *testing.T) {
	candles := series([]float64{1, 2, 3}, []float64{math.NaN(), math.NaN(), math.NaN()})
	if _, ok := VolumeRatio(candles, 1); ok {
		t.Error("VolumeRatio() ok = true, want false without volume data")
	}
}

package market

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// stringList decodes Gamma list fields, which arrive either as a JSON array or
// as a JSON string that itself holds an array.
type stringList []string

func (s *stringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}

	if b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*s = nil
			return nil
		}
		b = []byte(raw)
	}

	var vals []json.RawMessage
	if err := json.Unmarshal(b, &vals); err != nil {
		return err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			out = append(out, str)
			continue
		}
		out = append(out, string(bytes.TrimSpace(v)))
	}
	*s = out
	return nil
}

type gammaEvent struct {
	Slug    string        `json:"slug"`
	EndDate string        `json:"endDate"`
	Closed  bool          `json:"closed"`
	Markets []gammaMarket `json:"markets"`
}

type gammaMarket struct {
	ID            string     `json:"id"`
	Slug          string     `json:"slug"`
	Question      string     `json:"question"`
	EndDate       string     `json:"endDate"`
	Active        *bool      `json:"active"`
	Closed        bool       `json:"closed"`
	Outcomes      stringList `json:"outcomes"`
	OutcomePrices stringList `json:"outcomePrices"`
}

// prices maps the outcome list onto YES (Up) and NO (Down). Prices that are
// absent or non-numeric come back as NaN.
func (m gammaMarket) prices() (yes, no float64) {
	yesIdx, noIdx := 0, 1
	for i, o := range m.Outcomes {
		switch strings.ToLower(strings.TrimSpace(o)) {
		case "up", "yes":
			yesIdx = i
		case "down", "no":
			noIdx = i
		}
	}
	return priceAt(m.OutcomePrices, yesIdx), priceAt(m.OutcomePrices, noIdx)
}

func priceAt(list []string, i int) float64 {
	if i < 0 || i >= len(list) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(list[i]), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

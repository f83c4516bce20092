package forecast

// MinMaxScaler maps a series into [0, 1] using the min and max observed
// during Fit. A degenerate series (max == min) transforms to all zeros.
type MinMaxScaler struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Fit records the min and max of the series.
func (s *MinMaxScaler) Fit(values []float64) {
	if len(values) == 0 {
		return
	}
	s.Min, s.Max = values[0], values[0]
	for _, v := range values[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
}

// Transform scales values into the fitted range.
func (s *MinMaxScaler) Transform(values []float64) []float64 {
	out := make([]float64, len(values))
	span := s.Max - s.Min
	if span == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - s.Min) / span
	}
	return out
}

// Inverse maps a scaled value back to the original range.
func (s *MinMaxScaler) Inverse(v float64) float64 {
	return v*(s.Max-s.Min) + s.Min
}

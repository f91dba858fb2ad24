package results

import "math"

// Summary describes a set of per-batch ratio samples.
type Summary struct {
	Count        int     `json:"count"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"stddev"`
	SampleStdDev float64 `json:"sample_stddev"`
}

// Summarize computes min, max, mean and the population and sample standard
// deviations. An empty input yields the zero Summary.
func Summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	s := Summary{Count: len(samples), Min: samples[0], Max: samples[0]}
	sum := 0.0
	for _, v := range samples {
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = sum / float64(len(samples))

	sq := 0.0
	for _, v := range samples {
		d := v - s.Mean
		sq += d * d
	}
	s.StdDev = math.Sqrt(sq / float64(len(samples)))
	if len(samples) > 1 {
		s.SampleStdDev = math.Sqrt(sq / float64(len(samples)-1))
	}
	return s
}

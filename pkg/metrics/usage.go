package metrics

import "time"

// StageTimings records how long each pipeline stage took for one prediction.
type StageTimings struct {
	NormalizeMicros int64 `json:"normalizeMicros"`
	FeaturesMicros  int64 `json:"featuresMicros"`
	ClassifyMicros  int64 `json:"classifyMicros,omitempty"`
}

// IsZero reports whether timing data is absent.
func (t StageTimings) IsZero() bool {
	return t.NormalizeMicros == 0 && t.FeaturesMicros == 0 && t.ClassifyMicros == 0
}

// Micros converts a duration to whole microseconds.
func Micros(d time.Duration) int64 {
	return d.Microseconds()
}

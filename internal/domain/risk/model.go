package risk

import (
	"errors"
	"strings"
)

var (
	ErrScoreOutOfRange = errors.New("image score must be within [0,1]")
	ErrInvalidFeature  = errors.New("invalid tabular feature")
)

// Tier is the three-level risk outcome produced by the policy.
type Tier string

const (
	TierHigh   Tier = "High"
	TierMedium Tier = "Medium"
	TierLow    Tier = "Low"
)

// Source identifies which model produced an assessment.
type Source string

const (
	SourceTabular Source = "tabular"
	SourceImage   Source = "image"
)

// ParseSource accepts the two known source kinds.
func ParseSource(s string) (Source, bool) {
	switch Source(strings.ToLower(s)) {
	case SourceTabular:
		return SourceTabular, true
	case SourceImage:
		return SourceImage, true
	}
	return "", false
}

// Label is the closed set of class labels the tabular model emits.
type Label int

const (
	LabelLow Label = iota
	LabelMedium
	LabelHigh
)

func (l Label) String() string {
	switch l {
	case LabelHigh:
		return "High"
	case LabelMedium:
		return "Medium"
	default:
		return "Low"
	}
}

// ParseLabel matches the raw model output exactly. The boolean is false for
// anything outside the three tags, in which case LabelLow is returned.
func ParseLabel(raw string) (Label, bool) {
	switch raw {
	case "High":
		return LabelHigh, true
	case "Medium":
		return LabelMedium, true
	case "Low":
		return LabelLow, true
	}
	return LabelLow, false
}

// Assessment is the policy output. A new value is built on every call.
type Assessment struct {
	RiskLevel       Tier     `json:"risk_level"`
	FinalPrediction string   `json:"final_prediction"`
	Recommendations []string `json:"recommendations"`
	Source          Source   `json:"source"`
}

// ImageScore is the image model's confidence in the "normal" class.
type ImageScore struct {
	PNormal float64 `json:"normal_confidence"`
}

// PCancer is derived on demand and never stored.
func (s ImageScore) PCancer() float64 { return 1 - s.PNormal }

// Package risk turns raw model outputs into a risk tier, a canonical prediction
// text and an ordered list of recommendations.
package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

const (
	// HighCancerThreshold and MediumCancerThreshold are inclusive lower bounds
	// on the cancer probability.
	HighCancerThreshold   = 0.75
	MediumCancerThreshold = 0.25
)

type outcome struct {
	prediction      string
	recommendations []string
}

var tabularOutcomes = map[Label]outcome{
	LabelHigh: {
		prediction: "The person has a High risk of Lung Cancer",
		recommendations: []string{
			"Consult a pulmonologist or oncologist immediately",
			"Schedule diagnostic tests (CT scan, biopsy)",
			"Discuss family history and genetic factors",
			"Implement lifestyle changes immediately",
		},
	},
	LabelMedium: {
		prediction: "The person has a Medium risk of Lung Cancer",
		recommendations: []string{
			"Schedule appointment with primary care physician",
			"Consider preventive screening in 3-6 months",
			"Monitor symptoms and maintain health journal",
			"Review and reduce risk factors",
		},
	},
	LabelLow: {
		prediction: "The person has a Low risk of Lung Cancer",
		recommendations: []string{
			"Continue regular health check-ups",
			"Maintain healthy lifestyle habits",
			"Be aware of early warning signs",
			"Annual health screening recommended",
		},
	},
}

var imageOutcomes = map[Tier]outcome{
	TierHigh: {
		prediction: "Lung Cancer Case",
		recommendations: []string{
			"Consult a pulmonologist or oncologist immediately",
			"Schedule follow-up diagnostic tests (biopsy, PET scan)",
			"Share these results with your healthcare provider",
			"Do not ignore these findings - early intervention is crucial",
		},
	},
	TierMedium: {
		prediction: "Requires Further Evaluation",
		recommendations: []string{
			"Schedule an appointment with your primary care physician",
			"Consider a follow-up CT scan in 3-6 months",
			"Discuss risk factors and preventive measures",
			"Monitor for any new or worsening symptoms",
		},
	},
	TierLow: {
		prediction: "Normal Case",
		recommendations: []string{
			"Maintain regular health check-ups",
			"Continue healthy lifestyle habits",
			"Be aware of lung cancer risk factors",
			"Report any new respiratory symptoms to your doctor",
		},
	},
}

var labelTiers = map[Label]Tier{
	LabelHigh:   TierHigh,
	LabelMedium: TierMedium,
	LabelLow:    TierLow,
}

// Policy holds no classification state; the logger only records the
// fallback branch of the tabular mapping.
type Policy struct {
	logger zerolog.Logger
}

func NewPolicy(logger zerolog.Logger) *Policy {
	return &Policy{logger: logger.With().Str("component", "risk_policy").Logger()}
}

// ClassifyTabular maps a tabular model label to an assessment. Labels other
// than High, Medium and Low fall back to the Low tier.
func (p *Policy) ClassifyTabular(raw string) Assessment {
	label, ok := ParseLabel(raw)
	if !ok {
		p.logger.Warn().Str("label", raw).Msg("unrecognized tabular label, falling back to low tier")
	}
	o := tabularOutcomes[label]
	return Assessment{
		RiskLevel:       labelTiers[label],
		FinalPrediction: o.prediction,
		Recommendations: cloneStrings(o.recommendations),
		Source:          SourceTabular,
	}
}

// ClassifyImage maps the image model's normal-class probability to an
// assessment using the cancer probability 1 - pNormal.
func (p *Policy) ClassifyImage(pNormal float64) (Assessment, error) {
	if math.IsNaN(pNormal) || pNormal < 0 || pNormal > 1 {
		p.logger.Warn().Float64("p_normal", pNormal).Msg("rejecting out-of-range image score")
		return Assessment{}, fmt.Errorf("%w: got %v", ErrScoreOutOfRange, pNormal)
	}
	tier := TierForCancerProbability(ImageScore{PNormal: pNormal}.PCancer())
	o := imageOutcomes[tier]
	return Assessment{
		RiskLevel:       tier,
		FinalPrediction: o.prediction,
		Recommendations: cloneStrings(o.recommendations),
		Source:          SourceImage,
	}, nil
}

// TierForCancerProbability applies the 0.75 / 0.25 cut points, both inclusive
// on the lower bound.
func TierForCancerProbability(pCancer float64) Tier {
	switch {
	case pCancer >= HighCancerThreshold:
		return TierHigh
	case pCancer >= MediumCancerThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// ConfidenceNarrative is report text only and is not a risk tier.
func ConfidenceNarrative(pCancer float64) string {
	switch TierForCancerProbability(pCancer) {
	case TierHigh:
		return "High confidence"
	case TierMedium:
		return "Moderate confidence"
	default:
		return "Low confidence"
	}
}

// ConfidenceDetail is the longer sentence used in CT-scan reports.
func ConfidenceDetail(pCancer float64) string {
	switch TierForCancerProbability(pCancer) {
	case TierHigh:
		return "High confidence in detection - Strong indicators present"
	case TierMedium:
		return "Moderate confidence - Requires follow-up evaluation"
	default:
		return "Low confidence - Likely normal case"
	}
}

// RiskInterpretation is the one-line reading of a tabular tier.
func RiskInterpretation(t Tier) string {
	switch t {
	case TierHigh:
		return "HIGH RISK: Immediate medical consultation recommended"
	case TierMedium:
		return "MODERATE RISK: Follow-up with healthcare provider advised"
	default:
		return "LOW RISK: Continue regular health monitoring"
	}
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

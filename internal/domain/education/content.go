// Package education serves the static lung-health reference pages.
package education

import (
	"fmt"

	"github.com/lungscreen/lungscreen/internal/domain/risk"
)

type Section struct {
	Heading    string   `json:"heading"`
	Paragraphs []string `json:"paragraphs,omitempty"`
	Points     []string `json:"points,omitempty"`
}

type Topic struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

var topics = []Topic{
	{
		ID:    "overview",
		Title: "Lung Cancer Overview",
		Sections: []Section{
			{
				Heading: "Estimated burden",
				Points: []string{
					"About 238,340 new cases of lung cancer in the US in 2023 (117,550 in men and 120,790 in women)",
					"About 127,070 deaths from lung cancer (67,160 in men and 59,910 in women)",
				},
			},
			{
				Heading: "Early detection",
				Paragraphs: []string{
					"Early detection saves lives. Regular screenings and consultations with healthcare providers are essential for lung health.",
				},
			},
		},
	},
	{
		ID:    "risk-factors",
		Title: "Is Smoking the Only Cause?",
		Sections: []Section{
			{
				Heading: "Air pollution",
				Paragraphs: []string{
					"The International Agency for Research on Cancer classified outdoor air pollution as carcinogenic to humans in 2013, citing an increased risk of lung cancer from greater exposure to particulate matter.",
				},
			},
			{
				Heading: "Non-smokers",
				Points: []string{
					"A 2012 study by Mumbai's Tata Memorial Hospital found that 52.1 per cent of lung cancer patients had no history of smoking",
					"88 per cent of female lung cancer patients in that study were non-smokers, compared with 41.8 per cent of males",
					"A 2017 AIIMS Bhubaneswar profile found 48 per cent of patients had not been exposed to active or passive smoking",
				},
			},
		},
	},
	{
		ID:    "symptoms",
		Title: "Symptoms to Watch",
		Sections: []Section{
			{
				Heading: "Common symptoms",
				Points: []string{
					"Persistent cough or coughing up blood",
					"Shortness of breath and wheezing",
					"Chest pain",
					"Unexplained weight loss and fatigue",
					"Difficulty swallowing",
					"Frequent chest infections",
				},
			},
		},
	},
	{
		ID:    "ct-scan-model",
		Title: "CT-Scan Model",
		Sections: []Section{
			{
				Heading: "Architecture",
				Points: []string{
					"2D convolutional layers with max pooling",
					"Dropout for regularization",
					"Dense fully connected layers",
					"Sigmoid output giving the probability that a scan is normal",
				},
			},
			{
				Heading: "Pipeline",
				Points: []string{
					"Resize the uploaded scan to 150x150 pixels",
					"Normalize pixel values to the 0-1 range",
					"Run the network to obtain a single score",
					fmt.Sprintf("Cancer probability of %.0f%% or more is High risk, %.0f%% or more is Medium risk, otherwise Low",
						risk.HighCancerThreshold*100, risk.MediumCancerThreshold*100),
				},
			},
			{
				Heading: "Limitations",
				Points: []string{
					"Not a replacement for professional medical diagnosis",
					"Accuracy depends on image quality",
					"May produce false positives or negatives",
				},
			},
		},
	},
}

func tabularTopic() Topic {
	points := make([]string, len(risk.FeatureTitles))
	copy(points, risk.FeatureTitles)
	return Topic{
		ID:    "tabular-model",
		Title: "Health Parameter Model",
		Sections: []Section{
			{
				Heading: "Inputs",
				Points:  points,
			},
			{
				Heading: "Outcome",
				Paragraphs: []string{
					"The classifier assigns one of three levels: Low, Medium or High.",
					risk.RiskInterpretation(risk.TierHigh),
					risk.RiskInterpretation(risk.TierMedium),
					risk.RiskInterpretation(risk.TierLow),
				},
			},
		},
	}
}

// Topics returns every topic in display order.
func Topics() []Topic {
	out := make([]Topic, 0, len(topics)+1)
	out = append(out, topics...)
	return append(out, tabularTopic())
}

// Find returns the topic with id.
func Find(id string) (Topic, bool) {
	for _, t := range Topics() {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}

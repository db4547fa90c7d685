package risk

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FeatureNames lists the tabular model inputs in the order the model expects.
var FeatureNames = []string{
	"age",
	"gender",
	"air_pollution",
	"alcohol_use",
	"balanced_diet",
	"obesity",
	"smoking",
	"passive_smoker",
	"fatigue",
	"weight_loss",
	"shortness_of_breath",
	"wheezing",
	"swallowing_difficulty",
	"clubbing_of_finger_nails",
	"frequent_cold",
	"dry_cough",
	"snoring",
}

// FeatureTitles are the display names used in reports, indexed like FeatureNames.
var FeatureTitles = []string{
	"Age",
	"Gender",
	"Air Pollution Exposure",
	"Alcohol Use",
	"Balanced Diet",
	"Obesity",
	"Smoking",
	"Passive Smoker",
	"Fatigue",
	"Weight Loss",
	"Shortness of Breath",
	"Wheezing",
	"Swallowing Difficulty",
	"Clubbing of Finger Nails",
	"Frequent Cold",
	"Dry Cough",
	"Snoring",
}

// TabularFeatures holds the 17 health parameters. All are required.
type TabularFeatures struct {
	Age                   float64 `json:"age"`
	Gender                float64 `json:"gender"`
	AirPollution          float64 `json:"air_pollution"`
	AlcoholUse            float64 `json:"alcohol_use"`
	BalancedDiet          float64 `json:"balanced_diet"`
	Obesity               float64 `json:"obesity"`
	Smoking               float64 `json:"smoking"`
	PassiveSmoker         float64 `json:"passive_smoker"`
	Fatigue               float64 `json:"fatigue"`
	WeightLoss            float64 `json:"weight_loss"`
	ShortnessOfBreath     float64 `json:"shortness_of_breath"`
	Wheezing              float64 `json:"wheezing"`
	SwallowingDifficulty  float64 `json:"swallowing_difficulty"`
	ClubbingOfFingerNails float64 `json:"clubbing_of_finger_nails"`
	FrequentCold          float64 `json:"frequent_cold"`
	DryCough              float64 `json:"dry_cough"`
	Snoring               float64 `json:"snoring"`
}

func (f *TabularFeatures) fields() []*float64 {
	return []*float64{
		&f.Age, &f.Gender, &f.AirPollution, &f.AlcoholUse, &f.BalancedDiet,
		&f.Obesity, &f.Smoking, &f.PassiveSmoker, &f.Fatigue, &f.WeightLoss,
		&f.ShortnessOfBreath, &f.Wheezing, &f.SwallowingDifficulty,
		&f.ClubbingOfFingerNails, &f.FrequentCold, &f.DryCough, &f.Snoring,
	}
}

// ParseTabularFeatures parses every named field as a finite real number. The
// returned error wraps ErrInvalidFeature and names the first bad field.
func ParseTabularFeatures(raw map[string]string) (TabularFeatures, error) {
	var f TabularFeatures
	dst := f.fields()
	for i, name := range FeatureNames {
		s, ok := raw[name]
		s = strings.TrimSpace(s)
		if !ok || s == "" {
			return TabularFeatures{}, fmt.Errorf("%w: %s is required", ErrInvalidFeature, name)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return TabularFeatures{}, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidFeature, name, s)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return TabularFeatures{}, fmt.Errorf("%w: %s must be finite", ErrInvalidFeature, name)
		}
		*dst[i] = v
	}
	return f, nil
}

// Vector returns the features in model input order.
func (f TabularFeatures) Vector() []float32 {
	src := f.fields()
	out := make([]float32, len(src))
	for i, p := range src {
		out[i] = float32(*p)
	}
	return out
}

// Values returns the features keyed by name, formatted for storage and reports.
func (f TabularFeatures) Values() map[string]string {
	src := f.fields()
	out := make(map[string]string, len(src))
	for i, p := range src {
		out[FeatureNames[i]] = strconv.FormatFloat(*p, 'f', -1, 64)
	}
	return out
}

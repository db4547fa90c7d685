// Package inference adapts trained models to the risk policy: the tabular
// classifier yields a class label and the CT-scan classifier yields the
// probability that an image is normal.
package inference

import (
	"context"
	"errors"
)

var (
	ErrTabularUnavailable = errors.New("tabular model unavailable")
	ErrImageUnavailable   = errors.New("image model unavailable")
)

// TabularModel predicts a risk class label from the 17 health parameters.
type TabularModel interface {
	PredictLabel(ctx context.Context, features []float32) (string, error)
}

// ImageModel predicts p_normal from a preprocessed 150x150 RGB image.
type ImageModel interface {
	PredictNormal(ctx context.Context, pixels []float32) (float64, error)
}

// Models holds whichever adapters loaded. A nil field means that feature is
// disabled; the other keeps working.
type Models struct {
	Tabular TabularModel
	Image   ImageModel
}

func (m *Models) TabularModel() (TabularModel, error) {
	if m == nil || m.Tabular == nil {
		return nil, ErrTabularUnavailable
	}
	return m.Tabular, nil
}

func (m *Models) ImageModel() (ImageModel, error) {
	if m == nil || m.Image == nil {
		return nil, ErrImageUnavailable
	}
	return m.Image, nil
}

// Status reports which models are loaded.
func (m *Models) Status() map[string]bool {
	return map[string]bool{
		"tabular": m != nil && m.Tabular != nil,
		"image":   m != nil && m.Image != nil,
	}
}

package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lungscreen/lungscreen/internal/domain/risk"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidKind     = errors.New("prediction kind must be tabular or image")
)

// Session is one authenticated user's interaction. It owns its prediction
// record exclusively.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// FileDetails describes an uploaded CT-scan.
type FileDetails struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	FileSize int64  `json:"file_size"`
}

// StoredPrediction is an assessment plus the inputs that produced it.
type StoredPrediction struct {
	Assessment risk.Assessment   `json:"assessment"`
	RawInputs  map[string]string `json:"raw_inputs,omitempty"`
	ModelLabel string            `json:"model_label,omitempty"`
	Score      *risk.ImageScore  `json:"score,omitempty"`
	File       *FileDetails      `json:"file,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Clone returns a deep copy; the result shares no maps, slices or pointers
// with p.
func (p *StoredPrediction) Clone() *StoredPrediction {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Assessment.Recommendations != nil {
		cp.Assessment.Recommendations = append([]string(nil), p.Assessment.Recommendations...)
	}
	if p.RawInputs != nil {
		cp.RawInputs = make(map[string]string, len(p.RawInputs))
		for k, v := range p.RawInputs {
			cp.RawInputs[k] = v
		}
	}
	if p.Score != nil {
		score := *p.Score
		cp.Score = &score
	}
	if p.File != nil {
		file := *p.File
		cp.File = &file
	}
	return &cp
}

// PredictionRecord holds at most one prediction per source kind.
type PredictionRecord struct {
	Tabular *StoredPrediction `json:"tabular,omitempty"`
	Image   *StoredPrediction `json:"image,omitempty"`
}

// Get returns the slot for kind, or nil.
func (r PredictionRecord) Get(kind risk.Source) *StoredPrediction {
	switch kind {
	case risk.SourceTabular:
		return r.Tabular
	case risk.SourceImage:
		return r.Image
	}
	return nil
}

func validKind(kind risk.Source) error {
	if kind != risk.SourceTabular && kind != risk.SourceImage {
		return ErrInvalidKind
	}
	return nil
}

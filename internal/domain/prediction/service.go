// Package prediction runs the classifiers for a session and keeps the
// latest result of each kind in the session's prediction record.
package prediction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lungscreen/lungscreen/internal/domain/identity"
	"github.com/lungscreen/lungscreen/internal/domain/risk"
	"github.com/lungscreen/lungscreen/internal/domain/session"
	"github.com/lungscreen/lungscreen/internal/inference"
	"github.com/lungscreen/lungscreen/internal/platform/analytics"
	"github.com/lungscreen/lungscreen/internal/platform/reporting"
)

var (
	ErrNoPrediction    = errors.New("no prediction stored for this kind")
	ErrFileTooLarge    = errors.New("file exceeds upload limit")
	ErrUnsupportedFile = errors.New("file must be png, jpg or jpeg")
	ErrEmptyFile       = errors.New("file is empty")
)

var allowedImageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Profiles resolves the account a report is written for.
type Profiles interface {
	GetUser(ctx context.Context, username string) (*identity.User, error)
}

// Upload is a CT-scan image as received from the client.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Service struct {
	policy   *risk.Policy
	models   *inference.Models
	sessions session.Store
	usage    *analytics.UsageTracker
	profiles Profiles
	maxBytes int64
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(policy *risk.Policy, models *inference.Models, sessions session.Store,
	usage *analytics.UsageTracker, profiles Profiles, maxUploadBytes int64, logger zerolog.Logger) *Service {
	return &Service{
		policy:   policy,
		models:   models,
		sessions: sessions,
		usage:    usage,
		profiles: profiles,
		maxBytes: maxUploadBytes,
		logger:   logger.With().Str("component", "prediction").Logger(),
		now:      time.Now,
	}
}

// PredictTabular validates the 17 health parameters, runs the tabular
// model and stores the assessment in the session's tabular slot. Malformed
// input never reaches the model or the store.
func (s *Service) PredictTabular(ctx context.Context, sess *session.Session, inputs map[string]string) (*session.StoredPrediction, error) {
	features, err := risk.ParseTabularFeatures(inputs)
	if err != nil {
		return nil, err
	}
	model, err := s.models.TabularModel()
	if err != nil {
		return nil, err
	}
	label, err := model.PredictLabel(ctx, features.Vector())
	if err != nil {
		return nil, fmt.Errorf("tabular inference: %w", err)
	}

	assessment := s.policy.ClassifyTabular(label)
	p := &session.StoredPrediction{
		Assessment: assessment,
		RawInputs:  features.Values(),
		ModelLabel: label,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.save(ctx, sess, risk.SourceTabular, p); err != nil {
		return nil, err
	}
	return p, nil
}

// PredictImage checks and preprocesses an uploaded CT-scan, runs the image
// model and stores the assessment in the session's image slot.
func (s *Service) PredictImage(ctx context.Context, sess *session.Session, up Upload) (*session.StoredPrediction, error) {
	if !allowedImageExts[strings.ToLower(filepath.Ext(up.FileName))] {
		return nil, ErrUnsupportedFile
	}
	if s.maxBytes > 0 && up.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	model, err := s.models.ImageModel()
	if err != nil {
		return nil, err
	}

	// Size may be unknown or understated; cap the read as well.
	limit := s.maxBytes
	if limit <= 0 {
		limit = 1 << 62
	}
	data, err := io.ReadAll(io.LimitReader(up.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	pixels, info, err := inference.PreprocessImage(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	pNormal, err := model.PredictNormal(ctx, pixels)
	if err != nil {
		return nil, fmt.Errorf("image inference: %w", err)
	}
	assessment, err := s.policy.ClassifyImage(pNormal)
	if err != nil {
		return nil, err
	}

	contentType := up.ContentType
	if contentType == "" {
		contentType = "image/" + info.Format
	}
	p := &session.StoredPrediction{
		Assessment: assessment,
		Score:      &risk.ImageScore{PNormal: pNormal},
		File: &session.FileDetails{
			FileName: filepath.Base(up.FileName),
			FileType: contentType,
			FileSize: int64(len(data)),
		},
		CreatedAt: s.now().UTC(),
	}
	if err := s.save(ctx, sess, risk.SourceImage, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) save(ctx context.Context, sess *session.Session, kind risk.Source, p *session.StoredPrediction) error {
	if err := s.sessions.SavePrediction(ctx, sess.ID, kind, p); err != nil {
		return fmt.Errorf("store %s prediction: %w", kind, err)
	}
	if s.usage != nil {
		s.usage.Record(string(kind), string(p.Assessment.RiskLevel), sess.Username)
	}
	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("kind", string(kind)).
		Str("risk_level", string(p.Assessment.RiskLevel)).
		Msg("prediction stored")
	return nil
}

func (s *Service) Record(ctx context.Context, sess *session.Session) (session.PredictionRecord, error) {
	return s.sessions.Predictions(ctx, sess.ID)
}

func (s *Service) Clear(ctx context.Context, sess *session.Session, kind risk.Source) error {
	return s.sessions.ClearPrediction(ctx, sess.ID, kind)
}

// Report renders the stored prediction of kind in the requested format.
func (s *Service) Report(ctx context.Context, sess *session.Session, kind risk.Source, format reporting.Format) (*reporting.Rendered, error) {
	rec, err := s.sessions.Predictions(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	p := rec.Get(kind)
	if p == nil {
		return nil, ErrNoPrediction
	}

	patient := reporting.Patient{Username: sess.Username}
	if s.profiles != nil {
		if u, err := s.profiles.GetUser(ctx, sess.Username); err == nil {
			patient.FirstName, patient.LastName = u.FirstName, u.LastName
			patient.Email, patient.Phone, patient.Address = u.Email, u.Phone, u.Address
		}
	}

	now := s.now()
	var (
		doc  reporting.Document
		base string
	)
	switch kind {
	case risk.SourceTabular:
		doc = healthReport(patient, p, now).Document()
		base = "Lung_Cancer_ML_Report_" + reporting.Timestamp(now)
	default:
		doc = ctScanReport(patient, p, now).Document()
		base = "Lung_Cancer_CTScan_Report_" + reporting.Timestamp(now)
	}
	return reporting.Render(doc, format, base)
}

func healthReport(patient reporting.Patient, p *session.StoredPrediction, now time.Time) reporting.HealthReport {
	params := make([]reporting.Parameter, len(risk.FeatureNames))
	for i, name := range risk.FeatureNames {
		params[i] = reporting.Parameter{Name: risk.FeatureTitles[i], Value: p.RawInputs[name]}
	}
	return reporting.HealthReport{
		Patient:         patient,
		Parameters:      params,
		RiskLevel:       string(p.Assessment.RiskLevel),
		Prediction:      p.Assessment.FinalPrediction,
		Interpretation:  risk.RiskInterpretation(p.Assessment.RiskLevel),
		Recommendations: p.Assessment.Recommendations,
		GeneratedAt:     now,
	}
}

func ctScanReport(patient reporting.Patient, p *session.StoredPrediction, now time.Time) reporting.CTScanReport {
	r := reporting.CTScanReport{
		Patient:         patient,
		RiskLevel:       string(p.Assessment.RiskLevel),
		FinalPrediction: p.Assessment.FinalPrediction,
		Recommendations: p.Assessment.Recommendations,
		GeneratedAt:     now,
	}
	if p.File != nil {
		r.FileName, r.FileType, r.FileSize = p.File.FileName, p.File.FileType, p.File.FileSize
	}
	if p.Score != nil {
		r.NormalConfidence = p.Score.PNormal
		r.CancerConfidence = p.Score.PCancer()
		r.ConfidenceDetail = risk.ConfidenceDetail(r.CancerConfidence)
	}
	return r
}

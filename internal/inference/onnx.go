package inference

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	initOnce sync.Once
	initErr  error
)

// InitRuntime loads the ONNX Runtime shared library. It is safe to call more
// than once; only the first call has effect.
func InitRuntime(libPath string) error {
	initOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	return initErr
}

// ShutdownRuntime releases the ONNX Runtime environment.
func ShutdownRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// TabularConfig locates the exported tabular classifier.
type TabularConfig struct {
	Path       string
	InputName  string
	OutputName string
	// Classes maps the model's int64 label output to class names, in the
	// order the classifier was trained with.
	Classes []string
}

// ImageConfig locates the exported CT-scan classifier.
type ImageConfig struct {
	Path       string
	InputName  string
	OutputName string
}

type ONNXTabular struct {
	session *ort.DynamicAdvancedSession
	classes []string
}

func NewONNXTabular(cfg TabularConfig) (*ONNXTabular, error) {
	if len(cfg.Classes) == 0 {
		return nil, fmt.Errorf("tabular model: class list is empty")
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("tabular model: %w", err)
	}
	sess, err := ort.NewDynamicAdvancedSession(cfg.Path,
		[]string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("tabular model: open session: %w", err)
	}
	return &ONNXTabular{session: sess, classes: cfg.Classes}, nil
}

func (m *ONNXTabular) PredictLabel(ctx context.Context, features []float32) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	input, err := ort.NewTensor(ort.NewShape(1, int64(len(features))), features)
	if err != nil {
		return "", fmt.Errorf("build input tensor: %w", err)
	}
	defer input.Destroy()
	output, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return "", fmt.Errorf("build output tensor: %w", err)
	}
	defer output.Destroy()

	if err := m.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return "", fmt.Errorf("run tabular model: %w", err)
	}
	return classForIndex(m.classes, output.GetData()[0])
}

func (m *ONNXTabular) Close() error {
	return m.session.Destroy()
}

type ONNXImage struct {
	session *ort.DynamicAdvancedSession
}

func NewONNXImage(cfg ImageConfig) (*ONNXImage, error) {
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("image model: %w", err)
	}
	sess, err := ort.NewDynamicAdvancedSession(cfg.Path,
		[]string{cfg.InputName}, []string{cfg.OutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("image model: open session: %w", err)
	}
	return &ONNXImage{session: sess}, nil
}

func (m *ONNXImage) PredictNormal(ctx context.Context, pixels []float32) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(pixels) != ImageSize*ImageSize*3 {
		return 0, fmt.Errorf("image model: expected %d values, got %d", ImageSize*ImageSize*3, len(pixels))
	}
	input, err := ort.NewTensor(ort.NewShape(1, ImageSize, ImageSize, 3), pixels)
	if err != nil {
		return 0, fmt.Errorf("build input tensor: %w", err)
	}
	defer input.Destroy()
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, fmt.Errorf("build output tensor: %w", err)
	}
	defer output.Destroy()

	if err := m.session.Run([]ort.Value{input}, []ort.Value{output}); err != nil {
		return 0, fmt.Errorf("run image model: %w", err)
	}
	return float64(output.GetData()[0]), nil
}

func (m *ONNXImage) Close() error {
	return m.session.Destroy()
}

func classForIndex(classes []string, idx int64) (string, error) {
	if idx < 0 || idx >= int64(len(classes)) {
		return "", fmt.Errorf("tabular model returned class index %d outside %d classes", idx, len(classes))
	}
	return classes[idx], nil
}

// ParseClasses splits a comma-separated class list, dropping blanks.
func ParseClasses(raw string) []string {
	var out []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// LoadConfig gathers everything Load needs.
type LoadConfig struct {
	RuntimeLib string
	Tabular    TabularConfig
	Image      ImageConfig
}

// Load initializes the runtime and opens both models. A model that fails to
// load is logged and left nil so the rest of the service still starts. The
// returned closer releases whatever was opened.
func Load(cfg LoadConfig, logger zerolog.Logger) (*Models, func()) {
	logger = logger.With().Str("component", "inference").Logger()
	models := &Models{}
	var closers []func() error

	if cfg.Tabular.Path == "" && cfg.Image.Path == "" {
		logger.Warn().Msg("no model paths configured, predictions disabled")
		return models, func() {}
	}
	if err := InitRuntime(cfg.RuntimeLib); err != nil {
		logger.Error().Err(err).Str("lib", cfg.RuntimeLib).Msg("onnx runtime unavailable, predictions disabled")
		return models, func() {}
	}

	if cfg.Tabular.Path != "" {
		if m, err := NewONNXTabular(cfg.Tabular); err != nil {
			logger.Error().Err(err).Msg("tabular model failed to load")
		} else {
			models.Tabular = m
			closers = append(closers, m.Close)
			logger.Info().Str("path", cfg.Tabular.Path).Strs("classes", cfg.Tabular.Classes).Msg("tabular model loaded")
		}
	}
	if cfg.Image.Path != "" {
		if m, err := NewONNXImage(cfg.Image); err != nil {
			logger.Error().Err(err).Msg("image model failed to load")
		} else {
			models.Image = m
			closers = append(closers, m.Close)
			logger.Info().Str("path", cfg.Image.Path).Msg("image model loaded")
		}
	}

	return models, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn().Err(err).Msg("close model session")
			}
		}
		if err := ShutdownRuntime(); err != nil {
			logger.Warn().Err(err).Msg("shutdown onnx runtime")
		}
	}
}

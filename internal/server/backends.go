package server

import (
	"fmt"

	"github.com/ironsheep/region-editor-mcp/internal/bake"
	"github.com/ironsheep/region-editor-mcp/internal/config"
	"github.com/ironsheep/region-editor-mcp/internal/detection"
	"github.com/ironsheep/region-editor-mcp/internal/gesture"
	"github.com/ironsheep/region-editor-mcp/internal/imaging"
	"github.com/ironsheep/region-editor-mcp/internal/ocr"
	"github.com/ironsheep/region-editor-mcp/internal/pipeline"
	"github.com/ironsheep/region-editor-mcp/internal/recognition"
	"github.com/ironsheep/region-editor-mcp/internal/upload"
)

// NewEditor builds the redact and crop flows described by cfg. Both flows
// share one display handle registry.
func NewEditor(cfg *config.Config) (*pipeline.Editor, error) {
	opts, err := PipelineOptions(cfg)
	if err != nil {
		return nil, err
	}

	det, err := NewDetector(cfg)
	if err != nil {
		return nil, err
	}
	up, err := NewUploader(cfg)
	if err != nil {
		return nil, err
	}
	rec, err := NewRecognizer(cfg)
	if err != nil {
		return nil, err
	}

	handles := imaging.NewHandleRegistry()
	redactOpts := opts
	redactOpts.DeliverTimeout = cfg.UploadTimeout()
	cropOpts := opts
	cropOpts.DeliverTimeout = cfg.RecognitionTimeout()

	return pipeline.NewEditor(
		&pipeline.RedactFlow{Detector: det, Uploader: up, Handles: handles, Options: redactOpts},
		&pipeline.CropFlow{Recognizer: rec, Handles: handles, Options: cropOpts},
	), nil
}

// PipelineOptions maps the editor, bake and detection settings onto session
// options.
func PipelineOptions(cfg *config.Config) (pipeline.Options, error) {
	fill, err := imaging.ParseColor(cfg.Bake.FillColor)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("bake.fill_color: %w", err)
	}

	return pipeline.Options{
		Bake: bake.Options{Fill: fill, JPEGQuality: cfg.Bake.JPEGQuality},
		Gesture: gesture.Options{
			MinDrawSize: cfg.Editor.MinDrawSize,
			HandleSize:  cfg.Editor.HandleSize,
		},
		PreviewMaxDim:   cfg.Editor.PreviewMaxDim,
		VerifyRedaction: cfg.Bake.VerifyRedaction,
		DetectTimeout:   cfg.DetectionTimeout(),
		ManualOnFailure: cfg.Detection.ManualOnFailure,
	}, nil
}

// NewDetector combines the configured detection backends. The min score
// applies to the local heuristic backends only.
func NewDetector(cfg *config.Config) (detection.Detector, error) {
	dc := cfg.Detection
	if len(dc.Backends) == 0 {
		return nil, fmt.Errorf("no detection backends configured")
	}

	var engine *ocr.Engine
	var detectors []detection.Detector
	for _, name := range dc.Backends {
		switch name {
		case config.BackendHTTP:
			d, err := detection.NewHTTPDetector(dc.URL, cfg.DetectionTimeout())
			if err != nil {
				return nil, err
			}
			detectors = append(detectors, d)
		case config.BackendOCR:
			if engine == nil {
				engine = ocr.NewEngine(dc.Language, dc.TessdataPrefix)
			}
			detectors = append(detectors, detection.MinScore(detection.NewOCRDetector(engine), dc.MinScore))
		case config.BackendFaces:
			d, err := detection.NewFaceDetector(dc.FaceModelPath, detection.DefaultFaceOptions())
			if err != nil {
				return nil, err
			}
			detectors = append(detectors, detection.MinScore(d, dc.MinScore))
		case config.BackendBlocks:
			detectors = append(detectors, detection.NewTextBlockDetector(dc.MinScore))
		default:
			return nil, fmt.Errorf("unknown detection backend: %q", name)
		}
	}

	c := detection.NewComposite(detectors...)
	c.Tolerant = len(detectors) > 1
	return c, nil
}

// NewUploader returns the configured upload destination.
func NewUploader(cfg *config.Config) (upload.Uploader, error) {
	switch cfg.Upload.Backend {
	case config.BackendHTTP:
		return upload.NewHTTPUploader(cfg.Upload.URL, cfg.UploadTimeout())
	case config.BackendDir:
		return upload.NewDirUploader(cfg.Upload.Dir)
	default:
		return nil, fmt.Errorf("unknown upload backend: %q", cfg.Upload.Backend)
	}
}

// NewRecognizer returns the configured recognition backend.
func NewRecognizer(cfg *config.Config) (recognition.Recognizer, error) {
	rc := cfg.Recognition
	switch rc.Backend {
	case config.BackendHTTP:
		return recognition.NewHTTPRecognizer(rc.URL, cfg.RecognitionTimeout())
	case config.BackendOllama:
		return recognition.NewOllamaRecognizer(rc.URL, rc.Model, cfg.RecognitionTimeout())
	case config.BackendOCR:
		return recognition.NewOCRRecognizer(ocr.NewEngine(cfg.Detection.Language, cfg.Detection.TessdataPrefix)), nil
	default:
		return nil, fmt.Errorf("unknown recognition backend: %q", rc.Backend)
	}
}

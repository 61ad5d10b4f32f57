// Package config loads and validates the region editor server configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ironsheep/region-editor-mcp/internal/imaging"
)

// Environment variables that override file settings.
const (
	EnvLogLevel       = "REGION_MCP_LOG_LEVEL"
	EnvDetectionURL   = "REGION_MCP_DETECTION_URL"
	EnvRecognitionURL = "REGION_MCP_RECOGNITION_URL"
	EnvUploadURL      = "REGION_MCP_UPLOAD_URL"
)

// Backend names used by the detection, recognition and upload sections.
const (
	BackendHTTP   = "http"
	BackendOCR    = "ocr"
	BackendFaces  = "faces"
	BackendBlocks = "textblocks"
	BackendOllama = "ollama"
	BackendDir    = "dir"
)

// Config holds the application configuration
type Config struct {
	Log         LogConfig         `json:"log"`
	Editor      EditorConfig      `json:"editor"`
	Bake        BakeConfig        `json:"bake"`
	Detection   DetectionConfig   `json:"detection"`
	Recognition RecognitionConfig `json:"recognition"`
	Upload      UploadConfig      `json:"upload"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// EditorConfig holds configuration for the interactive editor
type EditorConfig struct {
	MinDrawSize   float64 `json:"min_draw_size"`
	HandleSize    float64 `json:"handle_size"`
	PreviewMaxDim int     `json:"preview_max_dim"`
}

// BakeConfig holds configuration for baking output images
type BakeConfig struct {
	FillColor       string `json:"fill_color"`
	JPEGQuality     int    `json:"jpeg_quality"`
	VerifyRedaction bool   `json:"verify_redaction"`
}

// DetectionConfig holds configuration for entity detection
type DetectionConfig struct {
	Backends        []string `json:"backends"`
	URL             string   `json:"url"`
	TimeoutSeconds  int      `json:"timeout_seconds"`
	MinScore        float64  `json:"min_score"`
	Language        string   `json:"language"`
	TessdataPrefix  string   `json:"tessdata_prefix"`
	FaceModelPath   string   `json:"face_model_path"`
	ManualOnFailure bool     `json:"manual_on_failure"`
}

// RecognitionConfig holds configuration for prescription recognition
type RecognitionConfig struct {
	Backend        string `json:"backend"`
	URL            string `json:"url"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// UploadConfig holds configuration for document upload
type UploadConfig struct {
	Backend        string `json:"backend"`
	URL            string `json:"url"`
	Dir            string `json:"dir"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Editor: EditorConfig{
			MinDrawSize:   3,
			HandleSize:    8,
			PreviewMaxDim: 1024,
		},
		Bake: BakeConfig{
			FillColor:       "#000000",
			JPEGQuality:     92,
			VerifyRedaction: true,
		},
		Detection: DetectionConfig{
			Backends:       []string{BackendHTTP},
			URL:            "http://localhost:8080/detect",
			TimeoutSeconds: 60,
			MinScore:       0.5,
			Language:       "eng",
		},
		Recognition: RecognitionConfig{
			Backend:        BackendHTTP,
			URL:            "http://localhost:8080/recognize",
			TimeoutSeconds: 300,
		},
		Upload: UploadConfig{
			Backend:        BackendHTTP,
			URL:            "http://localhost:8080/documents",
			TimeoutSeconds: 60,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads filename when it exists and falls back to defaults otherwise,
// then applies environment overrides and validates the result.
func Load(filename string) (*Config, error) {
	config := Default()
	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			loaded, err := LoadFromFile(filename)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// ApplyEnv overrides file settings with any environment variables that are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvDetectionURL); v != "" {
		c.Detection.URL = v
	}
	if v := os.Getenv(EnvRecognitionURL); v != "" {
		c.Recognition.URL = v
	}
	if v := os.Getenv(EnvUploadURL); v != "" {
		c.Upload.URL = v
	}
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := imaging.ParseColor(c.Bake.FillColor); err != nil {
		return fmt.Errorf("bake.fill_color: %w", err)
	}

	if c.Bake.JPEGQuality < 1 || c.Bake.JPEGQuality > 100 {
		return fmt.Errorf("bake.jpeg_quality must be between 1 and 100")
	}

	if c.Editor.MinDrawSize < 1 {
		return fmt.Errorf("editor.min_draw_size must be at least 1")
	}

	if c.Editor.HandleSize < 1 {
		return fmt.Errorf("editor.handle_size must be at least 1")
	}

	if c.Editor.PreviewMaxDim < 0 {
		return fmt.Errorf("editor.preview_max_dim cannot be negative")
	}

	if c.Detection.MinScore < 0 || c.Detection.MinScore > 1 {
		return fmt.Errorf("detection.min_score must be between 0 and 1")
	}

	for _, b := range c.Detection.Backends {
		switch b {
		case BackendHTTP:
			if c.Detection.URL == "" {
				return fmt.Errorf("detection.url is required for the http backend")
			}
		case BackendFaces:
			if c.Detection.FaceModelPath == "" {
				return fmt.Errorf("detection.face_model_path is required for the faces backend")
			}
		case BackendOCR, BackendBlocks:
		default:
			return fmt.Errorf("unknown detection backend: %q", b)
		}
	}

	switch c.Recognition.Backend {
	case BackendHTTP:
		if c.Recognition.URL == "" {
			return fmt.Errorf("recognition.url is required for the http backend")
		}
	case BackendOllama:
		if c.Recognition.Model == "" {
			return fmt.Errorf("recognition.model is required for the ollama backend")
		}
	case BackendOCR:
	default:
		return fmt.Errorf("unknown recognition backend: %q", c.Recognition.Backend)
	}

	switch c.Upload.Backend {
	case BackendHTTP:
		if c.Upload.URL == "" {
			return fmt.Errorf("upload.url is required for the http backend")
		}
	case BackendDir:
		if c.Upload.Dir == "" {
			return fmt.Errorf("upload.dir is required for the dir backend")
		}
	default:
		return fmt.Errorf("unknown upload backend: %q", c.Upload.Backend)
	}

	if c.Detection.TimeoutSeconds < 0 || c.Recognition.TimeoutSeconds < 0 || c.Upload.TimeoutSeconds < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}

	return nil
}

// DetectionTimeout returns the detection timeout, zero meaning none.
func (c *Config) DetectionTimeout() time.Duration {
	return time.Duration(c.Detection.TimeoutSeconds) * time.Second
}

// RecognitionTimeout returns the recognition timeout, zero meaning none.
func (c *Config) RecognitionTimeout() time.Duration {
	return time.Duration(c.Recognition.TimeoutSeconds) * time.Second
}

// UploadTimeout returns the upload timeout, zero meaning none.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.Upload.TimeoutSeconds) * time.Second
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "region-editor-mcp", "config.json")
}

package genpipe

import (
	"strings"
	"time"
)

// Built-in model defaults used when no override is configured.
const (
	DefaultTextModel  = "openai/gpt-oss-20b"
	DefaultImageModel = "black-forest-labs/flux-1-schnell"
)

// Backend names accepted in Config.Backend.
const (
	BackendHuggingFace = "huggingface"
	BackendGemini      = "gemini"
)

// Config holds everything the pipeline reads at construction time.
// Values are never re-read afterwards.
type Config struct {
	// Backend selects the remote service family: "huggingface" or "gemini".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Token authenticates against the remote service.
	Token string `mapstructure:"token" yaml:"token"`

	Text  RemoteConfig `mapstructure:"text" yaml:"text"`
	Image RemoteConfig `mapstructure:"image" yaml:"image"`

	Sampling    SamplingParams `mapstructure:"sampling" yaml:"sampling"`
	ImageParams ImageParams    `mapstructure:"image_params" yaml:"image_params"`

	// ImageConcurrency bounds concurrent remote image requests in a batch.
	ImageConcurrency int `mapstructure:"image_concurrency" yaml:"image_concurrency"`

	Local     LocalConfig     `mapstructure:"local" yaml:"local"`
	Media     MediaConfig     `mapstructure:"media" yaml:"media"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// RemoteConfig configures one remote purpose (text or image).
type RemoteConfig struct {
	// Model is the purpose-specific override.
	Model string `mapstructure:"model" yaml:"model"`

	// FallbackModel is the generic override shared with other components.
	FallbackModel string `mapstructure:"fallback_model" yaml:"fallback_model"`

	// DefaultModel is the built-in default. Blank disables the default.
	DefaultModel string `mapstructure:"default_model" yaml:"default_model"`

	// Endpoint takes precedence over the model id when set.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ResolveModel returns the first non-blank of Model, FallbackModel and DefaultModel.
func (r RemoteConfig) ResolveModel() string {
	for _, m := range []string{r.Model, r.FallbackModel, r.DefaultModel} {
		if m = strings.TrimSpace(m); m != "" {
			return m
		}
	}
	return ""
}

// Configured reports whether a handle can be built for this purpose.
func (r RemoteConfig) Configured() bool {
	return strings.TrimSpace(r.Endpoint) != "" || r.ResolveModel() != ""
}

// LocalConfig configures the in-process model.
type LocalConfig struct {
	// ModelPath points at a GGUF model file. Empty disables the local tier.
	ModelPath   string `mapstructure:"model_path" yaml:"model_path"`
	ContextSize int    `mapstructure:"context_size" yaml:"context_size"`
	Threads     int    `mapstructure:"threads" yaml:"threads"`
	GPULayers   int    `mapstructure:"gpu_layers" yaml:"gpu_layers"`
}

// MediaConfig controls where artifacts are written and how they are addressed.
type MediaConfig struct {
	Root    string `mapstructure:"root" yaml:"root"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// RateLimitConfig limits remote usage. Zero values disable limiting.
type RateLimitConfig struct {
	TokensPerMinute   int    `mapstructure:"tokens_per_minute" yaml:"tokens_per_minute"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	RedisAddr         string `mapstructure:"redis_addr" yaml:"redis_addr"`
	KeyPrefix         string `mapstructure:"key_prefix" yaml:"key_prefix"`
}

// Enabled reports whether both limits are set.
func (r RateLimitConfig) Enabled() bool {
	return r.TokensPerMinute > 0 && r.RequestsPerMinute > 0
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Backend: BackendHuggingFace,
		Text: RemoteConfig{
			DefaultModel: DefaultTextModel,
			Timeout:      30 * time.Second,
		},
		Image: RemoteConfig{
			DefaultModel: DefaultImageModel,
			Timeout:      60 * time.Second,
		},
		Sampling:         DefaultSampling(),
		ImageParams:      DefaultImageParams(),
		ImageConcurrency: 4,
		Local: LocalConfig{
			ContextSize: 2048,
			Threads:     4,
		},
		Media: MediaConfig{
			Root:    "uploads",
			BaseURL: "/uploads/",
		},
		RateLimit: RateLimitConfig{
			KeyPrefix: "genpipe:ratelimit",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Normalize fills zero or invalid values with defaults.
func (c Config) Normalize() Config {
	def := DefaultConfig()
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend != BackendGemini {
		c.Backend = BackendHuggingFace
	}
	if c.Text.Timeout <= 0 {
		c.Text.Timeout = def.Text.Timeout
	}
	if c.Image.Timeout <= 0 {
		c.Image.Timeout = def.Image.Timeout
	}
	c.Sampling = c.Sampling.Normalize(DefaultSampling())
	c.ImageParams = c.ImageParams.Normalize()
	if c.ImageConcurrency <= 0 {
		c.ImageConcurrency = def.ImageConcurrency
	}
	if c.Local.ContextSize <= 0 {
		c.Local.ContextSize = def.Local.ContextSize
	}
	if c.Local.Threads <= 0 {
		c.Local.Threads = def.Local.Threads
	}
	if c.Local.GPULayers < 0 {
		c.Local.GPULayers = 0
	}
	if strings.TrimSpace(c.Media.Root) == "" {
		c.Media.Root = def.Media.Root
	}
	if c.Media.BaseURL == "" {
		c.Media.BaseURL = def.Media.BaseURL
	}
	if c.RateLimit.KeyPrefix == "" {
		c.RateLimit.KeyPrefix = def.RateLimit.KeyPrefix
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	return c
}

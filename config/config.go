// Package config loads genpipe.Config from an optional file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mhpenta/genpipe"
)

// EnvPrefix prefixes every environment variable derived from a config key,
// e.g. GENPIPE_TEXT_MODEL for text.model.
const EnvPrefix = "GENPIPE"

// legacyEnv lists the unprefixed variable names accepted for each key, in
// precedence order.
var legacyEnv = map[string][]string{
	"backend":                        {"INFERENCE_BACKEND"},
	"token":                          {"HF_API_TOKEN"},
	"text.model":                     {"HF_TEXT_MODEL"},
	"text.fallback_model":            {"MODEL_NAME"},
	"text.default_model":             {"DEFAULT_TEXT_MODEL"},
	"text.endpoint":                  {"HF_TEXT_ENDPOINT", "HF_INFERENCE_ENDPOINT"},
	"text.timeout":                   {"TEXT_TIMEOUT"},
	"image.model":                    {"HF_IMAGE_MODEL"},
	"image.fallback_model":           {"IMAGE_MODEL"},
	"image.default_model":            {"DEFAULT_IMAGE_MODEL"},
	"image.endpoint":                 {"HF_IMAGE_ENDPOINT"},
	"image.timeout":                  {"IMAGE_TIMEOUT"},
	"sampling.max_new_tokens":        {"MAX_NEW_TOKENS"},
	"sampling.temperature":           {"TEMPERATURE"},
	"sampling.top_p":                 {"TOP_P"},
	"image_params.width":             {"IMAGE_WIDTH"},
	"image_params.height":            {"IMAGE_HEIGHT"},
	"image_params.guidance_scale":    {"IMAGE_GUIDANCE_SCALE"},
	"image_params.inference_steps":   {"IMAGE_INFERENCE_STEPS"},
	"image_concurrency":              {"IMAGE_CONCURRENCY"},
	"local.model_path":               {"LOCAL_MODEL_PATH"},
	"local.context_size":             {"LOCAL_CONTEXT_SIZE"},
	"local.threads":                  {"LOCAL_THREADS"},
	"local.gpu_layers":               {"LOCAL_GPU_LAYERS"},
	"media.root":                     {"MEDIA_ROOT"},
	"media.base_url":                 {"MEDIA_URL"},
	"rate_limit.tokens_per_minute":   {"RATE_LIMIT_TPM"},
	"rate_limit.requests_per_minute": {"RATE_LIMIT_RPM"},
	"rate_limit.redis_addr":          {"RATE_LIMIT_REDIS_ADDR"},
	"rate_limit.key_prefix":          {"RATE_LIMIT_KEY_PREFIX"},
	"log.level":                      {"LOG_LEVEL"},
	"log.format":                     {"LOG_FORMAT"},
}

// Load reads configuration from path (optional, any format viper supports)
// and the environment. Set but empty variables count as set. Numeric values
// that are empty or fail to parse fall back to their defaults instead of
// failing the load.
func Load(path string) (genpipe.Config, error) {
	v := viper.New()
	def := genpipe.DefaultConfig()
	setDefaults(v, def)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// an empty DEFAULT_TEXT_MODEL or DEFAULT_IMAGE_MODEL disables the built-in default
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return genpipe.Config{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return genpipe.Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	return fromViper(v, def).Normalize(), nil
}

func setDefaults(v *viper.Viper, def genpipe.Config) {
	v.SetDefault("backend", def.Backend)
	v.SetDefault("text.default_model", def.Text.DefaultModel)
	v.SetDefault("text.timeout", def.Text.Timeout.String())
	v.SetDefault("image.default_model", def.Image.DefaultModel)
	v.SetDefault("image.timeout", def.Image.Timeout.String())
	v.SetDefault("sampling.max_new_tokens", def.Sampling.MaxNewTokens)
	v.SetDefault("sampling.temperature", def.Sampling.Temperature)
	v.SetDefault("sampling.top_p", def.Sampling.TopP)
	v.SetDefault("image_params.width", def.ImageParams.Width)
	v.SetDefault("image_params.height", def.ImageParams.Height)
	v.SetDefault("image_params.guidance_scale", def.ImageParams.GuidanceScale)
	v.SetDefault("image_params.inference_steps", def.ImageParams.InferenceSteps)
	v.SetDefault("image_concurrency", def.ImageConcurrency)
	v.SetDefault("local.context_size", def.Local.ContextSize)
	v.SetDefault("local.threads", def.Local.Threads)
	v.SetDefault("local.gpu_layers", def.Local.GPULayers)
	v.SetDefault("media.root", def.Media.Root)
	v.SetDefault("media.base_url", def.Media.BaseURL)
	v.SetDefault("rate_limit.key_prefix", def.RateLimit.KeyPrefix)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
}

func fromViper(v *viper.Viper, def genpipe.Config) genpipe.Config {
	return genpipe.Config{
		Backend: v.GetString("backend"),
		Token:   v.GetString("token"),
		Text: genpipe.RemoteConfig{
			Model:         v.GetString("text.model"),
			FallbackModel: v.GetString("text.fallback_model"),
			DefaultModel:  v.GetString("text.default_model"),
			Endpoint:      v.GetString("text.endpoint"),
			Timeout:       durationValue(v, "text.timeout", def.Text.Timeout),
		},
		Image: genpipe.RemoteConfig{
			Model:         v.GetString("image.model"),
			FallbackModel: v.GetString("image.fallback_model"),
			DefaultModel:  v.GetString("image.default_model"),
			Endpoint:      v.GetString("image.endpoint"),
			Timeout:       durationValue(v, "image.timeout", def.Image.Timeout),
		},
		Sampling: genpipe.SamplingParams{
			MaxNewTokens: intValue(v, "sampling.max_new_tokens", def.Sampling.MaxNewTokens),
			Temperature:  floatValue(v, "sampling.temperature", def.Sampling.Temperature),
			TopP:         floatValue(v, "sampling.top_p", def.Sampling.TopP),
		},
		ImageParams: genpipe.ImageParams{
			Width:          intValue(v, "image_params.width", def.ImageParams.Width),
			Height:         intValue(v, "image_params.height", def.ImageParams.Height),
			GuidanceScale:  floatValue(v, "image_params.guidance_scale", def.ImageParams.GuidanceScale),
			InferenceSteps: intValue(v, "image_params.inference_steps", def.ImageParams.InferenceSteps),
		},
		ImageConcurrency: intValue(v, "image_concurrency", def.ImageConcurrency),
		Local: genpipe.LocalConfig{
			ModelPath:   v.GetString("local.model_path"),
			ContextSize: intValue(v, "local.context_size", def.Local.ContextSize),
			Threads:     intValue(v, "local.threads", def.Local.Threads),
			GPULayers:   intValue(v, "local.gpu_layers", def.Local.GPULayers),
		},
		Media: genpipe.MediaConfig{
			Root:    v.GetString("media.root"),
			BaseURL: v.GetString("media.base_url"),
		},
		RateLimit: genpipe.RateLimitConfig{
			TokensPerMinute:   intValue(v, "rate_limit.tokens_per_minute", 0),
			RequestsPerMinute: intValue(v, "rate_limit.requests_per_minute", 0),
			RedisAddr:         v.GetString("rate_limit.redis_addr"),
			KeyPrefix:         v.GetString("rate_limit.key_prefix"),
		},
		Log: genpipe.LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
}

func intValue(v *viper.Viper, key string, def int) int {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func floatValue(v *viper.Viper, key string, def float64) float64 {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}

// durationValue accepts Go durations ("45s") or plain seconds ("45").
func durationValue(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return def
}

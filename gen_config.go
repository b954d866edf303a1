package genpipe

import (
	"math"
)

// SamplingParams controls remote and local text generation.
type SamplingParams struct {
	MaxNewTokens int     `mapstructure:"max_new_tokens" yaml:"max_new_tokens"`
	Temperature  float64 `mapstructure:"temperature" yaml:"temperature"`
	TopP         float64 `mapstructure:"top_p" yaml:"top_p"`
}

// DefaultSampling returns the sampling used for conversation replies.
func DefaultSampling() SamplingParams {
	return SamplingParams{
		MaxNewTokens: 512,
		Temperature:  0.7,
		TopP:         0.9,
	}
}

// DirectorSampling returns the sampling used when enhancing image prompts.
func DirectorSampling() SamplingParams {
	return SamplingParams{
		MaxNewTokens: 220,
		Temperature:  0.65,
		TopP:         0.92,
	}
}

// Normalize replaces unset or out-of-range fields with the matching field
// of def. Zero counts as unset for every field.
func (p SamplingParams) Normalize(def SamplingParams) SamplingParams {
	if p.MaxNewTokens <= 0 {
		p.MaxNewTokens = def.MaxNewTokens
	}
	if math.IsNaN(p.Temperature) || p.Temperature <= 0 || p.Temperature > 2 {
		p.Temperature = def.Temperature
	}
	if math.IsNaN(p.TopP) || p.TopP <= 0 || p.TopP > 1 {
		p.TopP = def.TopP
	}
	return p
}

// ImageParams controls remote image generation.
type ImageParams struct {
	Width          int     `mapstructure:"width" yaml:"width"`
	Height         int     `mapstructure:"height" yaml:"height"`
	GuidanceScale  float64 `mapstructure:"guidance_scale" yaml:"guidance_scale"`
	InferenceSteps int     `mapstructure:"inference_steps" yaml:"inference_steps"`
}

// DefaultImageParams returns 768x768 images with light guidance.
func DefaultImageParams() ImageParams {
	return ImageParams{
		Width:          768,
		Height:         768,
		GuidanceScale:  3.5,
		InferenceSteps: 8,
	}
}

// Normalize replaces unset (zero) or out-of-range fields with defaults.
func (p ImageParams) Normalize() ImageParams {
	def := DefaultImageParams()
	if p.Width <= 0 {
		p.Width = def.Width
	}
	if p.Height <= 0 {
		p.Height = def.Height
	}
	if math.IsNaN(p.GuidanceScale) || p.GuidanceScale <= 0 {
		p.GuidanceScale = def.GuidanceScale
	}
	if p.InferenceSteps <= 0 {
		p.InferenceSteps = def.InferenceSteps
	}
	return p
}

// AspectRatio represents the aspect ratio for generated images.
type AspectRatio string

const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio4x3  AspectRatio = "4:3"
	AspectRatio3x4  AspectRatio = "3:4"
	AspectRatio2x3  AspectRatio = "2:3"
	AspectRatio3x2  AspectRatio = "3:2"
	AspectRatio4x5  AspectRatio = "4:5"
	AspectRatio5x4  AspectRatio = "5:4"
	AspectRatio21x9 AspectRatio = "21:9"
)

var aspectRatios = []struct {
	ratio AspectRatio
	value float64
}{
	{AspectRatio1x1, 1},
	{AspectRatio16x9, 16.0 / 9},
	{AspectRatio9x16, 9.0 / 16},
	{AspectRatio4x3, 4.0 / 3},
	{AspectRatio3x4, 3.0 / 4},
	{AspectRatio2x3, 2.0 / 3},
	{AspectRatio3x2, 3.0 / 2},
	{AspectRatio4x5, 4.0 / 5},
	{AspectRatio5x4, 5.0 / 4},
	{AspectRatio21x9, 21.0 / 9},
}

// String returns the string representation.
func (a AspectRatio) String() string {
	return string(a)
}

// AspectRatio returns the supported ratio closest to Width:Height.
func (p ImageParams) AspectRatio() AspectRatio {
	if p.Width <= 0 || p.Height <= 0 {
		return AspectRatio1x1
	}
	want := float64(p.Width) / float64(p.Height)
	best := AspectRatio1x1
	bestDiff := math.Inf(1)
	for _, r := range aspectRatios {
		// compare in log space so 2:1 and 1:2 are equally far from 1:1
		diff := math.Abs(math.Log(want) - math.Log(r.value))
		if diff < bestDiff {
			best, bestDiff = r.ratio, diff
		}
	}
	return best
}

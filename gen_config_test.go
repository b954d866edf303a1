package genpipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSamplingParams_Normalize(t *testing.T) {
	def := DefaultSampling()

	assert.Equal(t, def, SamplingParams{}.Normalize(def))
	assert.Equal(t, SamplingParams{MaxNewTokens: 64, Temperature: 0.1, TopP: 1},
		SamplingParams{MaxNewTokens: 64, Temperature: 0.1, TopP: 1}.Normalize(def))
	assert.Equal(t, def.Temperature, SamplingParams{Temperature: 0}.Normalize(def).Temperature, "zero is unset")
	assert.Equal(t, def.Temperature, SamplingParams{Temperature: -0.1}.Normalize(def).Temperature)
	assert.Equal(t, def.Temperature, SamplingParams{Temperature: 2.5}.Normalize(def).Temperature)
}

func TestImageParams_Normalize(t *testing.T) {
	assert.Equal(t, DefaultImageParams(), ImageParams{}.Normalize())

	p := ImageParams{Width: 1024, Height: 512, GuidanceScale: 7, InferenceSteps: 4}.Normalize()
	assert.Equal(t, ImageParams{Width: 1024, Height: 512, GuidanceScale: 7, InferenceSteps: 4}, p)

	p = ImageParams{Width: 1024, Height: 512, GuidanceScale: 0, InferenceSteps: 4}.Normalize()
	assert.Equal(t, DefaultImageParams().GuidanceScale, p.GuidanceScale, "zero is unset")
	assert.Equal(t, DefaultImageParams().GuidanceScale, ImageParams{GuidanceScale: -1}.Normalize().GuidanceScale)
}

func TestImageParams_AspectRatio(t *testing.T) {
	tests := []struct {
		w, h int
		want AspectRatio
	}{
		{768, 768, AspectRatio1x1},
		{1920, 1080, AspectRatio16x9},
		{1080, 1920, AspectRatio9x16},
		{1024, 768, AspectRatio4x3},
		{2560, 1080, AspectRatio21x9},
		{800, 1000, AspectRatio4x5},
		{0, 100, AspectRatio1x1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ImageParams{Width: tt.w, Height: tt.h}.AspectRatio(), "%dx%d", tt.w, tt.h)
	}
}

package genpipe

import (
	"math"
)

// TokenEstimator approximates the token cost of a prompt.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// SimpleTokenEstimator assumes roughly four characters per token and pads
// the result by SafetyMargin.
type SimpleTokenEstimator struct {
	SafetyMargin float64
}

func NewSimpleTokenEstimator() *SimpleTokenEstimator {
	return &SimpleTokenEstimator{
		SafetyMargin: 1.2,
	}
}

func (e *SimpleTokenEstimator) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	margin := e.SafetyMargin
	if margin <= 0 {
		margin = 1
	}
	estimate := float64(len([]rune(text))) / 4.0 * margin

	return int(math.Ceil(estimate)) + 3
}

// imageRequestTokens is charged per remote image on top of the prompt.
const imageRequestTokens = 256

// requestCost is the prompt estimate plus the tokens the request may produce.
func requestCost(est TokenEstimator, prompt string, completionTokens int) int {
	if est == nil {
		est = NewSimpleTokenEstimator()
	}
	return est.EstimateTokens(prompt) + max(completionTokens, 0)
}

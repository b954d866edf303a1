//go:build llama && !no_llama

package llamacpp

import (
	"context"
	"fmt"

	"github.com/go-skynet/go-llama.cpp"

	"github.com/mhpenta/genpipe"
)

// Available reports whether llama.cpp is compiled in.
const Available = true

type model struct {
	llm     *llama.LLama
	threads int
}

func load(cfg genpipe.LocalConfig) (genpipe.LocalModel, error) {
	llm, err := llama.New(cfg.ModelPath,
		llama.SetContext(cfg.ContextSize),
		llama.SetGPULayers(cfg.GPULayers),
	)
	if err != nil {
		return nil, fmt.Errorf("llama.New failed: %w", err)
	}
	return &model{llm: llm, threads: cfg.Threads}, nil
}

// Generate runs one prediction. llama.cpp cannot be interrupted, so ctx is
// only checked before the call.
func (m *model) Generate(ctx context.Context, prompt string, params genpipe.SamplingParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := m.llm.Predict(prompt,
		llama.SetTemperature(float32(params.Temperature)),
		llama.SetTopP(float32(params.TopP)),
		llama.SetTokens(params.MaxNewTokens),
		llama.SetThreads(m.threads),
		llama.SetStopWords("User:"),
	)
	if err != nil {
		return "", fmt.Errorf("llama predict: %w", err)
	}
	return out, nil
}

func (m *model) Close() error {
	m.llm.Free()
	return nil
}

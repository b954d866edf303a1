package genpipe

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// LocalPipeline owns the lazily constructed local model. Execute is the
// only way to reach the model; calls are serialized by a single mutex, so
// throughput is one generation at a time per pipeline.
type LocalPipeline struct {
	load LocalLoader

	mu    sync.Mutex
	model LocalModel
}

// NewLocalPipeline creates an empty slot. A nil loader makes every Execute
// return ErrLocalUnavailable.
func NewLocalPipeline(load LocalLoader) *LocalPipeline {
	return &LocalPipeline{load: load}
}

// Execute constructs the model on first use and runs one generation.
// A failed construction is not cached; the next call retries it.
func (p *LocalPipeline) Execute(ctx context.Context, prompt string, params SamplingParams) (out string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("local model panic: %v", r)
		}
	}()

	if p.model == nil {
		if p.load == nil {
			return "", ErrLocalUnavailable
		}
		m, err := p.load(ctx)
		if err != nil {
			return "", err
		}
		if m == nil {
			return "", ErrLocalUnavailable
		}
		p.model = m
	}

	return p.model.Generate(ctx, prompt, params)
}

// Loaded reports whether the model has been constructed.
func (p *LocalPipeline) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model != nil
}

// Close releases the model if it was constructed.
func (p *LocalPipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model == nil {
		return nil
	}
	err := p.model.Close()
	p.model = nil
	if err != nil && !errors.Is(err, ErrLocalUnavailable) {
		return fmt.Errorf("close local model: %w", err)
	}
	return nil
}

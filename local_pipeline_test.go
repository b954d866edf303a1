package genpipe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPipeline_NilLoader(t *testing.T) {
	p := NewLocalPipeline(nil)
	_, err := p.Execute(context.Background(), "p", DefaultSampling())
	assert.ErrorIs(t, err, ErrLocalUnavailable)
	assert.False(t, p.Loaded())
}

func TestLocalPipeline_RetriesFailedLoad(t *testing.T) {
	var loads atomic.Int32
	p := NewLocalPipeline(func(context.Context) (LocalModel, error) {
		if loads.Add(1) == 1 {
			return nil, errors.New("weights still downloading")
		}
		return &MockLocalModel{}, nil
	})

	_, err := p.Execute(context.Background(), "p", DefaultSampling())
	require.Error(t, err)
	assert.False(t, p.Loaded())

	out, err := p.Execute(context.Background(), "p", DefaultSampling())
	require.NoError(t, err)
	assert.Equal(t, "local reply", out)
	assert.True(t, p.Loaded())

	_, err = p.Execute(context.Background(), "p", DefaultSampling())
	require.NoError(t, err)
	assert.EqualValues(t, 2, loads.Load(), "a loaded model is reused")
}

func TestLocalPipeline_NilModelIsUnavailable(t *testing.T) {
	p := NewLocalPipeline(func(context.Context) (LocalModel, error) { return nil, nil })
	_, err := p.Execute(context.Background(), "p", DefaultSampling())
	assert.ErrorIs(t, err, ErrLocalUnavailable)
}

func TestLocalPipeline_SerializesGenerations(t *testing.T) {
	var active, peak atomic.Int32
	model := &MockLocalModel{
		GenerateFunc: func(context.Context, string, SamplingParams) (string, error) {
			n := active.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
			return "ok", nil
		},
	}
	var loads atomic.Int32
	p := NewLocalPipeline(countingLoader(model, nil, &loads))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Execute(context.Background(), "p", DefaultSampling())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, peak.Load())
	assert.EqualValues(t, 1, loads.Load())
}

func TestLocalPipeline_RecoversPanic(t *testing.T) {
	p := NewLocalPipeline(func(context.Context) (LocalModel, error) {
		return &MockLocalModel{
			GenerateFunc: func(context.Context, string, SamplingParams) (string, error) {
				panic("cgo crash")
			},
		}, nil
	})

	_, err := p.Execute(context.Background(), "p", DefaultSampling())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cgo crash")

	// the mutex is released after a panic
	_, err = p.Execute(context.Background(), "p", DefaultSampling())
	assert.Error(t, err)
}

func TestLocalPipeline_Close(t *testing.T) {
	var closed atomic.Int32
	p := NewLocalPipeline(func(context.Context) (LocalModel, error) {
		return &MockLocalModel{CloseFunc: func() error {
			closed.Add(1)
			return nil
		}}, nil
	})

	require.NoError(t, p.Close(), "closing an unloaded pipeline is a no-op")

	_, err := p.Execute(context.Background(), "p", DefaultSampling())
	require.NoError(t, err)
	require.NoError(t, p.Close())
	assert.EqualValues(t, 1, closed.Load())
	assert.False(t, p.Loaded())
}

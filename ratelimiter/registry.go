package ratelimiter

import (
	"fmt"
	"sync"
)

// Registry hands out one limiter per remote target.
type Registry interface {
	Get(target string) (Limiter, error)
	Set(target string, limiter Limiter)

	// GetOrCreate returns the limiter for target, building it with create
	// on first use.
	GetOrCreate(target string, create func() Limiter) Limiter
}

type mapRegistry struct {
	registry map[string]Limiter
	mu       sync.RWMutex
}

// NewRegistry creates a new in-memory limiter registry.
func NewRegistry() Registry {
	return &mapRegistry{
		registry: make(map[string]Limiter),
	}
}

func (r *mapRegistry) Get(target string) (Limiter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limiter, exists := r.registry[target]
	if !exists {
		return nil, fmt.Errorf("rate limiter not found for target: %s", target)
	}
	return limiter, nil
}

func (r *mapRegistry) Set(target string, limiter Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registry[target] = limiter
}

func (r *mapRegistry) GetOrCreate(target string, create func() Limiter) Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, ok := r.registry[target]; ok {
		return limiter
	}
	limiter := create()
	r.registry[target] = limiter
	return limiter
}

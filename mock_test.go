package genpipe

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"
)

// MockTextClient is a mock implementation of TextClient.
type MockTextClient struct {
	GenerateTextFunc func(ctx context.Context, prompt string, params SamplingParams) (string, error)
	InfoValue        HandleInfo
}

func (m *MockTextClient) GenerateText(ctx context.Context, prompt string, params SamplingParams) (string, error) {
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, prompt, params)
	}
	return "mock reply", nil
}

func (m *MockTextClient) Info() HandleInfo {
	if m.InfoValue == (HandleInfo{}) {
		return HandleInfo{Provider: ProviderHuggingFace, Model: "mock/text"}
	}
	return m.InfoValue
}

// MockImageClient is a mock implementation of ImageClient.
type MockImageClient struct {
	GenerateImageFunc func(ctx context.Context, prompt string, params ImageParams) (*RemoteImage, error)
	InfoValue         HandleInfo
}

func (m *MockImageClient) GenerateImage(ctx context.Context, prompt string, params ImageParams) (*RemoteImage, error) {
	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, prompt, params)
	}
	return &RemoteImage{Data: solidPNG(nil, color.RGBA{R: 200, A: 255}), MIMEType: MIMETypePNG}, nil
}

func (m *MockImageClient) Info() HandleInfo {
	if m.InfoValue == (HandleInfo{}) {
		return HandleInfo{Provider: ProviderHuggingFace, Model: "mock/image"}
	}
	return m.InfoValue
}

// MockClients is a ClientSource over optional mock handles.
type MockClients struct {
	Text  TextClient
	Image ImageClient
}

func (m *MockClients) TextClient(context.Context) TextClient { return m.Text }

func (m *MockClients) ImageClient(context.Context) ImageClient { return m.Image }

// MockLocalModel is a mock implementation of LocalModel.
type MockLocalModel struct {
	GenerateFunc func(ctx context.Context, prompt string, params SamplingParams) (string, error)
	CloseFunc    func() error
}

func (m *MockLocalModel) Generate(ctx context.Context, prompt string, params SamplingParams) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, params)
	}
	return "local reply", nil
}

func (m *MockLocalModel) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// memoryStorage records saved files. FailFunc, when set, decides per path
// whether a write fails.
type memoryStorage struct {
	mu       sync.Mutex
	files    map[string][]byte
	types    map[string]string
	FailFunc func(relPath string) error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		files: make(map[string][]byte),
		types: make(map[string]string),
	}
}

func (s *memoryStorage) SaveFile(_ context.Context, data []byte, relPath string, contentType string) (string, error) {
	if s.FailFunc != nil {
		if err := s.FailFunc(relPath); err != nil {
			return "", err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[relPath] = append([]byte(nil), data...)
	s.types[relPath] = contentType
	return "mem://" + relPath, nil
}

func (s *memoryStorage) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (s *memoryStorage) file(relPath string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[relPath]
}

func fixedClock() func() time.Time {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	return func() time.Time { return ts }
}

// solidPNG encodes a 16x16 image filled with c.
func solidPNG(t *testing.T, c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil && t != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

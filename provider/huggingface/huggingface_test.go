package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhpenta/genpipe"
)

type capturedRequest struct {
	path   string
	auth   string
	accept string
	body   map[string]any
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		captured.accept = r.Header.Get("Accept")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.body)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestExtractGeneratedText(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "string", body: `"  hi there  "`, want: "hi there"},
		{name: "object generated_text", body: `{"generated_text":"hello"}`, want: "hello"},
		{name: "object summary_text", body: `{"summary_text":"short"}`, want: "short"},
		{name: "array", body: `[{"generated_text":" first "},{"generated_text":"second"}]`, want: "first"},
		{name: "array summary", body: `[{"summary_text":"sum"}]`, want: "sum"},
		{name: "empty array", body: `[]`, wantErr: true},
		{name: "array of strings", body: `["nope"]`, wantErr: true},
		{name: "object without text", body: `{"foo":"bar"}`, wantErr: true},
		{name: "number", body: `42`, wantErr: true},
		{name: "not json", body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractGeneratedText([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, genpipe.ErrUnexpectedPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextClient_GenerateText(t *testing.T) {
	srv, captured := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"generated_text":"General Kenobi!"}]`))
	})

	c, err := NewTextClient(Options{Model: "openai/gpt-oss-20b", Token: "secret", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := c.GenerateText(context.Background(), "User: Hello\nAssistant:", genpipe.DefaultSampling())
	require.NoError(t, err)
	assert.Equal(t, "General Kenobi!", out)

	assert.Equal(t, "/openai/gpt-oss-20b", captured.path)
	assert.Equal(t, "Bearer secret", captured.auth)
	assert.Equal(t, "User: Hello\nAssistant:", captured.body["inputs"])

	params, ok := captured.body["parameters"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 512, params["max_new_tokens"])
	assert.EqualValues(t, 0.7, params["temperature"])
	assert.EqualValues(t, 0.9, params["top_p"])
	assert.Equal(t, true, params["do_sample"])
	assert.Equal(t, false, params["return_full_text"])

	info := c.Info()
	assert.Equal(t, genpipe.ProviderHuggingFace, info.Provider)
	assert.Equal(t, "openai/gpt-oss-20b", info.Target())
}

func TestTextClient_EndpointWinsOverModel(t *testing.T) {
	srv, captured := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"generated_text":"ok"}`))
	})

	c, err := NewTextClient(Options{Model: "ignored/model", Endpoint: srv.URL + "/custom"})
	require.NoError(t, err)

	_, err = c.GenerateText(context.Background(), "p", genpipe.DefaultSampling())
	require.NoError(t, err)
	assert.Equal(t, "/custom", captured.path)
	assert.Empty(t, captured.auth)
	assert.Equal(t, srv.URL+"/custom", c.Info().Target())
}

func TestTextClient_Errors(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Rate limit reached"}`))
		})
		c, err := NewTextClient(Options{Endpoint: srv.URL})
		require.NoError(t, err)

		_, err = c.GenerateText(context.Background(), "p", genpipe.DefaultSampling())
		require.Error(t, err)
		var rlErr *genpipe.RateLimitError
		require.ErrorAs(t, err, &rlErr)
		assert.Equal(t, 7*time.Second, rlErr.RetryAfter)
	})

	t.Run("model loading", func(t *testing.T) {
		srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model is currently loading","estimated_time":20}`))
		})
		c, err := NewTextClient(Options{Endpoint: srv.URL})
		require.NoError(t, err)

		_, err = c.GenerateText(context.Background(), "p", genpipe.DefaultSampling())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
		assert.Contains(t, err.Error(), "currently loading")
	})

	t.Run("timeout", func(t *testing.T) {
		srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			_, _ = w.Write([]byte(`"late"`))
		})
		c, err := NewTextClient(Options{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
		require.NoError(t, err)

		_, err = c.GenerateText(context.Background(), "p", genpipe.DefaultSampling())
		assert.Error(t, err)
	})
}

func TestNewTextClient_Validation(t *testing.T) {
	_, err := NewTextClient(Options{})
	assert.Error(t, err)

	_, err = NewTextClient(Options{Endpoint: "not-a-url"})
	assert.Error(t, err)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageClient_GenerateImage(t *testing.T) {
	data := pngBytes(t)
	srv, captured := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	})

	c, err := NewImageClient(Options{Model: "black-forest-labs/flux-1-schnell", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := c.GenerateImage(context.Background(), "a fox, variation 1", genpipe.DefaultImageParams())
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.MIMEType)
	assert.Equal(t, data, out.Data)

	assert.Equal(t, "image/png", captured.accept)
	params, ok := captured.body["parameters"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 768, params["width"])
	assert.EqualValues(t, 768, params["height"])
	assert.EqualValues(t, 3.5, params["guidance_scale"])
	assert.EqualValues(t, 8, params["num_inference_steps"])
}

func TestImageClient_RejectsNonImage(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"generated_text":"not an image"}`))
	})

	c, err := NewImageClient(Options{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = c.GenerateImage(context.Background(), "p", genpipe.DefaultImageParams())
	assert.ErrorIs(t, err, genpipe.ErrUnexpectedPayload)
}

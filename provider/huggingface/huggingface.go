// Package huggingface provides text and image handles backed by the Hugging
// Face Inference API or a dedicated inference endpoint.
package huggingface

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/mhpenta/genpipe"
)

// DefaultBaseURL is prefixed to model ids when no endpoint is configured.
const DefaultBaseURL = "https://api-inference.huggingface.co/models/"

// Options configures a handle. Endpoint wins over Model.
type Options struct {
	Model    string
	Endpoint string
	Token    string
	Timeout  time.Duration

	// BaseURL overrides DefaultBaseURL.
	BaseURL string
}

type endpoint struct {
	http    *client.Client
	url     string
	token   string
	timeout time.Duration
	info    genpipe.HandleInfo
}

type response struct {
	status      int
	contentType string
	retryAfter  string
	body        []byte
}

func newEndpoint(opts Options) (*endpoint, error) {
	target := strings.TrimSpace(opts.Endpoint)
	model := strings.TrimSpace(opts.Model)
	if target == "" {
		if model == "" {
			return nil, fmt.Errorf("huggingface: model or endpoint is required")
		}
		base := opts.BaseURL
		if base == "" {
			base = DefaultBaseURL
		}
		target = strings.TrimRight(base, "/") + "/" + model
	}
	if !strings.Contains(target, "://") {
		return nil, fmt.Errorf("huggingface: invalid endpoint %q", target)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c, err := client.NewClient(
		client.WithDialTimeout(10*time.Second),
		client.WithMaxIdleConnDuration(60*time.Second),
		client.WithDialer(standard.NewDialer()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &endpoint{
		http:    c,
		url:     target,
		token:   opts.Token,
		timeout: timeout,
		info: genpipe.HandleInfo{
			Provider: genpipe.ProviderHuggingFace,
			Model:    model,
			Endpoint: strings.TrimSpace(opts.Endpoint),
		},
	}, nil
}

func (e *endpoint) post(ctx context.Context, payload any, accept string) (*response, error) {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(e.url)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.Header.Set("Accept", accept)
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	req.SetBody(body)

	timeout := e.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	if err := e.http.DoTimeout(ctx, req, resp, timeout); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	out := &response{
		status:      resp.StatusCode(),
		contentType: string(resp.Header.ContentType()),
		retryAfter:  resp.Header.Get("Retry-After"),
		body:        bytes.Clone(resp.Body()),
	}
	if out.status != consts.StatusOK {
		return nil, e.statusError(out)
	}
	return out, nil
}

func (e *endpoint) statusError(r *response) error {
	var apiErr struct {
		Error         any     `json:"error"`
		EstimatedTime float64 `json:"estimated_time"`
	}
	msg := strings.TrimSpace(string(r.body))
	if err := sonic.Unmarshal(r.body, &apiErr); err == nil && apiErr.Error != nil {
		msg = fmt.Sprint(apiErr.Error)
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}

	err := fmt.Errorf("inference API returned HTTP %d: %s", r.status, msg)
	if r.status == consts.StatusTooManyRequests {
		retry := time.Minute
		if secs, perr := strconv.Atoi(strings.TrimSpace(r.retryAfter)); perr == nil && secs > 0 {
			retry = time.Duration(secs) * time.Second
		}
		return &genpipe.RateLimitError{
			RetryAfter: retry,
			LimitType:  genpipe.LimitProvider,
			Model:      e.info.Target(),
			Err:        err,
		}
	}
	return err
}

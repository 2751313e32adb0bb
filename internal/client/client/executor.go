package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/logging"
	"github.com/sethvargo/go-retry"
)

// Request is one call to the group service. Path is relative to the
// executor's base URL.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header
	// AllowConflict turns a 409 into a *ConflictError instead of a
	// *StatusError.
	AllowConflict bool
}

// Idempotent reports whether the request may be retried.
func (r *Request) Idempotent() bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

type Response struct {
	Body []byte
}

// Executor performs group service requests and classifies the outcome.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
}

type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

type HTTPExecutor struct {
	baseURL *url.URL
	client  *http.Client
	retry   RetryPolicy
	logger  logging.Logger
}

func NewHTTPExecutor(baseURL string, client *http.Client, policy RetryPolicy, logger logging.Logger) (*HTTPExecutor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid service url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid service url %q", baseURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 100 * time.Millisecond
	}
	return &HTTPExecutor{
		baseURL: u,
		client:  client,
		retry:   policy,
		logger:  logger.With("module", "executor"),
	}, nil
}

// Execute sends req. 200 returns the body, 401 maps to
// common.ErrUnauthorized, 409 to *ConflictError when the request allows it,
// other statuses to *StatusError and transport failures to *NetworkError.
// Idempotent requests are retried on network errors, 429 and 5xx.
func (e *HTTPExecutor) Execute(ctx context.Context, req *Request) (*Response, error) {
	if !req.Idempotent() || e.retry.MaxRetries == 0 {
		return e.do(ctx, req)
	}

	backoff := retry.NewExponential(e.retry.BaseDelay)
	backoff = retry.WithMaxRetries(e.retry.MaxRetries, backoff)
	if e.retry.MaxDelay > 0 {
		backoff = retry.WithCappedDuration(e.retry.MaxDelay, backoff)
	}

	var resp *Response
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		r, err := e.do(ctx, req)
		if err != nil {
			if retryable(err) {
				e.logger.Warn(ctx, "retrying request", "path", req.Path, "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return errors.Is(err, common.ErrNetwork)
}

func (e *HTTPExecutor) do(ctx context.Context, req *Request) (*Response, error) {
	target := e.baseURL.JoinPath(req.Path)

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/x-protobuf")
	}

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	e.logger.Debug(ctx, "request done", "method", req.Method, "path", req.Path, "status", httpResp.StatusCode)

	switch httpResp.StatusCode {
	case http.StatusOK:
		return &Response{Body: data}, nil
	case http.StatusUnauthorized:
		return nil, common.ErrUnauthorized
	case http.StatusConflict:
		if req.AllowConflict {
			return nil, &ConflictError{CurrentRecord: data}
		}
	}
	return nil, &StatusError{Code: httpResp.StatusCode}
}

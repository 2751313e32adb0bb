package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(t *testing.T, url string, retries uint64) *HTTPExecutor {
	t.Helper()
	e, err := NewHTTPExecutor(url, nil, RetryPolicy{MaxRetries: retries, BaseDelay: time.Millisecond}, logging.Nop{})
	require.NoError(t, err)
	return e
}

func TestNewHTTPExecutor_InvalidURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "://x"} {
		_, err := NewHTTPExecutor(u, nil, RetryPolicy{}, logging.Nop{})
		assert.Error(t, err, u)
	}
}

func TestExecute_SendsRequest(t *testing.T) {
	var gotMethod, gotPath, gotAuth, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte("confirmed"))
	}))
	defer srv.Close()

	e := newExecutor(t, srv.URL+"/", 0)
	resp, err := e.Execute(context.Background(), &Request{
		Method: http.MethodPatch,
		Path:   "/v1/groups/",
		Body:   []byte{1, 2, 3},
		Header: http.Header{"Authorization": {"Basic abc"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("confirmed"), resp.Body)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/v1/groups/", gotPath)
	assert.Equal(t, "Basic abc", gotAuth)
	assert.Equal(t, "application/x-protobuf", gotType)
	assert.Equal(t, []byte{1, 2, 3}, gotBody)
}

func TestExecute_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		allowConflict bool
		check         func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, common.ErrUnauthorized)
			},
		},
		{
			name:          "conflict carries current record",
			status:        http.StatusConflict,
			allowConflict: true,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, common.ErrConflict)
				var ce *ConflictError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, []byte("server body"), ce.CurrentRecord)
			},
		},
		{
			name:   "conflict not allowed",
			status: http.StatusConflict,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, common.ErrUnexpectedStatus)
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusConflict, se.Code)
			},
		},
		{
			name:   "other status",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusForbidden, se.Code)
				assert.False(t, errors.Is(err, common.ErrNetwork))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("server body"))
			}))
			defer srv.Close()

			_, err := newExecutor(t, srv.URL, 0).Execute(context.Background(), &Request{
				Method:        http.MethodPatch,
				Path:          "/v1/groups/",
				AllowConflict: tt.allowConflict,
			})
			tt.check(t, err)
		})
	}
}

func TestExecute_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newExecutor(t, url, 0).Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v1/groups/"})
	require.ErrorIs(t, err, common.ErrNetwork)
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	require.Error(t, ne.Unwrap())
}

func TestExecute_RetriesIdempotentOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := newExecutor(t, srv.URL, 3).Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v1/groups/"})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), resp.Body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestExecute_RetryLimits(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		status    int
		retries   uint64
		wantCalls int32
	}{
		{"gives up after max retries", http.MethodGet, http.StatusBadGateway, 2, 3},
		{"zero retries means one request", http.MethodGet, http.StatusBadGateway, 0, 1},
		{"no retry on unauthorized", http.MethodGet, http.StatusUnauthorized, 3, 1},
		{"no retry on client error", http.MethodGet, http.StatusNotFound, 3, 1},
		{"no retry for non-idempotent", http.MethodPut, http.StatusBadGateway, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newExecutor(t, srv.URL, tt.retries).Execute(context.Background(), &Request{Method: tt.method, Path: "/v1/groups/"})
			require.Error(t, err)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestExecute_RetryExhaustedKeepsLastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newExecutor(t, srv.URL, 1).Execute(context.Background(), &Request{Method: http.MethodGet, Path: "/v1/groups/logs/3"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
}

package rntree

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchURL_Success(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"value": {"type": "View", "children": [{"type": "Text"}]}}`)
	f := NewFetcher(WithRateLimit(rate.Inf, 1))

	tree, err := f.FetchURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Count())
}

func TestFetchURL_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"malformed json", http.StatusOK, `{"type": "View", "children": [`},
		{"server error", http.StatusInternalServerError, `{"error": "boom"}`},
		{"not found", http.StatusNotFound, ``},
		{"wrong shape", http.StatusOK, `[1, 2, 3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			f := NewFetcher(WithRateLimit(rate.Inf, 1))

			tree, err := f.FetchURL(context.Background(), srv.URL)
			assert.Nil(t, tree)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeRemoteFetch, apperrors.CodeOf(err))
		})
	}
}

func TestFetchURL_Unreachable(t *testing.T) {
	srv := serve(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	f := NewFetcher(WithRateLimit(rate.Inf, 1), WithTimeout(time.Second))
	_, err := f.FetchURL(context.Background(), url)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeRemoteFetch))
}

func TestFetchURL_RateLimitHonoursContext(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"type": "View"}`)
	f := NewFetcher(WithRateLimit(rate.Every(time.Hour), 1))

	_, err := f.FetchURL(context.Background(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.FetchURL(ctx, srv.URL)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeRemoteFetch))
}

type stubInspector struct {
	tree any
	err  error
}

func (s stubInspector) RNTree(context.Context) (any, error) { return s.tree, s.err }

func TestFetchApplication(t *testing.T) {
	f := NewFetcher()
	ctx := context.Background()

	tree, err := f.FetchApplication(ctx, stubInspector{tree: map[string]any{"type": "View"}})
	require.NoError(t, err)
	assert.Equal(t, "View", tree.Attributes["type"])

	_, err = f.FetchApplication(ctx, stubInspector{err: errors.New("no bridge")})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeRemoteFetch))

	_, err = f.FetchApplication(ctx, nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeRemoteFetch))
}

package notion

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-classifier/internal/resilience"
)

// MockClient implements Client with testify expectations.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	resp, _ := args.Get(0).(*notionapi.DatabaseQueryResponse)
	return resp, args.Error(1)
}

func (m *MockClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	page, _ := args.Get(0).(*notionapi.Page)
	return page, args.Error(1)
}

func (m *MockClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, req)
	page, _ := args.Get(0).(*notionapi.Page)
	return page, args.Error(1)
}

// redirect sends every request to target regardless of the original host.
type redirect struct {
	target *url.URL
}

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

// serveNotion returns a Client whose API calls land on handler.
func serveNotion(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)

	opts = append([]ClientOption{
		WithRateLimit(0),
		WithHTTPClient(&http.Client{Transport: redirect{target: u}}),
		WithRetry(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}),
	}, opts...)
	return NewClient("secret", opts...)
}

func writeAPIError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"object":"error","status":%d,"code":%q,"message":%q}`, status, code, code)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("secret").(*notionClient)
	require.NotNil(t, c.limiter)
	assert.Equal(t, rate.Limit(defaultRPS), c.limiter.Limit())
	assert.Equal(t, resilience.DefaultRetryConfig().MaxAttempts, c.retry.MaxAttempts)
	assert.NotNil(t, c.api)
}

func TestWithRateLimit(t *testing.T) {
	c := NewClient("secret", WithRateLimit(8)).(*notionClient)
	assert.Equal(t, 8, c.limiter.Burst())

	c = NewClient("secret", WithRateLimit(0)).(*notionClient)
	assert.Nil(t, c.limiter)
	assert.NoError(t, c.wait(context.Background()))
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&notionapi.Error{Status: http.StatusBadGateway}))
	assert.True(t, retryable(&notionapi.Error{Status: http.StatusServiceUnavailable}))
	assert.False(t, retryable(&notionapi.Error{Status: http.StatusBadRequest, Code: "validation_error"}))
	assert.False(t, retryable(&notionapi.Error{Status: http.StatusNotFound}))
	assert.True(t, retryable(resilience.NewTransientError(assert.AnError, http.StatusBadGateway)))
	assert.False(t, retryable(assert.AnError))
}

func TestCreatePage_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	client := serveNotion(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		if hits.Add(1) < 3 {
			writeAPIError(w, http.StatusServiceUnavailable, "service_unavailable")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"page","id":"page-1"}`))
	})

	page, err := client.CreatePage(context.Background(), &notionapi.PageCreateRequest{})
	require.NoError(t, err)
	assert.Equal(t, notionapi.ObjectID("page-1"), page.ID)
	assert.Equal(t, int32(3), hits.Load())
}

func TestUpdatePage_ValidationErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	client := serveNotion(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeAPIError(w, http.StatusBadRequest, "validation_error")
	})

	_, err := client.UpdatePage(context.Background(), "page-9", &notionapi.PageUpdateRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: update page page-9")
	assert.Equal(t, int32(1), hits.Load())
}

func TestQueryDatabase_Transport(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := serveNotion(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Contains(t, r.URL.Path, "/databases/db-1/query")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","results":[{"object":"page","id":"p1"}],"has_more":false}`))
		})

		resp, err := client.QueryDatabase(context.Background(), "db-1", &notionapi.DatabaseQueryRequest{})
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, notionapi.ObjectID("p1"), resp.Results[0].ID)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		var hits atomic.Int32
		client := serveNotion(t, func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			writeAPIError(w, http.StatusBadGateway, "internal_server_error")
		})

		_, err := client.QueryDatabase(context.Background(), "db-1", &notionapi.DatabaseQueryRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "notion: query database db-1")
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("cancelled context skips request", func(t *testing.T) {
		var hits atomic.Int32
		client := serveNotion(t, func(http.ResponseWriter, *http.Request) {
			hits.Add(1)
		})
		client.(*notionClient).limiter = rate.NewLimiter(rate.Every(time.Hour), 0)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.QueryDatabase(ctx, "db-1", &notionapi.DatabaseQueryRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "notion: rate limit")
		assert.Zero(t, hits.Load())
	})
}

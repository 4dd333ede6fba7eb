package hrapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/casewatch/internal/source"
)

func TestClientSendsTokenHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token abc", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/alertas/", r.URL.Path)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/", "abc")
	var out []Record
	require.NoError(t, c.Get(context.Background(), alertsPath, &out))
	assert.Empty(t, out)
}

func TestClientOmitsHeaderWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var out []Record
	require.NoError(t, NewClient(srv.URL, "").Get(context.Background(), casesPath, &out))
}

func TestClientRenewsTokenOn401(t *testing.T) {
	var renewals atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == renewPath:
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Token old", r.Header.Get("Authorization"))
			renewals.Add(1)
			w.Write([]byte(`{"token":"new"}`))
		case r.Header.Get("Authorization") == "Token new":
			w.Write([]byte(`[{"id":1}]`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	var renewed string
	c := NewClient(srv.URL, "old", OnTokenRenewed(func(tok string) { renewed = tok }))

	var out []Record
	require.NoError(t, c.Get(context.Background(), alertsPath, &out))
	assert.Len(t, out, 1)
	assert.Equal(t, int32(1), renewals.Load())
	assert.Equal(t, "new", c.Token())
	assert.Equal(t, "new", renewed)
}

func TestClientAuthErrorWhenRenewalFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "old")
	err := c.Get(context.Background(), alertsPath, nil)
	require.Error(t, err)
	assert.True(t, source.IsAuthError(err))
	assert.Equal(t, "old", c.Token())
}

func TestClientAuthErrorWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "").Get(context.Background(), alertsPath, nil)
	assert.True(t, source.IsAuthError(err))
}

func TestClientRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var out []Record
	require.NoError(t, NewClient(srv.URL, "t").Get(context.Background(), alertsPath, &out))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "t", WithMaxRetries(1)).Get(context.Background(), alertsPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries (1) exceeded")
}

func TestClientErrorMessageFromBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message":"boom"}`, "boom"},
		{"detail", `{"detail":"no permission"}`, "no permission"},
		{"error", `{"error":"bad"}`, "bad"},
		{"non field errors", `{"non_field_errors":["first","second"]}`, "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewClient(srv.URL, "").Get(context.Background(), alertsPath, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "(400)")
		})
	}
}

func TestClientHonorsContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "10")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewClient(srv.URL, "").Get(ctx, alertsPath, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, 1*time.Second, retryAfterDuration(resp, 0))
	assert.Equal(t, 4*time.Second, retryAfterDuration(resp, 2))
	assert.Equal(t, 30*time.Second, retryAfterDuration(resp, 10))

	resp.Header.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, retryAfterDuration(resp, 0))
}

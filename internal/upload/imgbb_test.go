package upload

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key")
	c.endpoint = srv.URL
	return c
}

func TestUpload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "test-key", r.PostForm.Get("key"))
		assert.Equal(t, "aGVsbG8=", r.PostForm.Get("image"))

		w.Write([]byte(`{"success": true, "data": {"url": "https://i.ibb.co/abc/img.png"}}`))
	})

	u, err := c.Upload(context.Background(), "aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/abc/img.png", u)
}

func TestUploadRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success": false}`))
	})

	_, err := c.Upload(context.Background(), "bad")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUploadFailed))
}

func TestUploadAll(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 2 {
			w.Write([]byte(`{"success": false}`))
			return
		}
		w.Write([]byte(`{"success": true, "data": {"url": "https://i.ibb.co/x.png"}}`))
	})

	_, err := c.UploadAll(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	// Batch aborts on first failure.
	assert.Equal(t, 2, calls)
}

func TestConfigured(t *testing.T) {
	assert.True(t, NewClient("k").Configured())
	assert.False(t, NewClient("").Configured())
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package script

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/printlist/internal/httputil"
	"github.com/pdiddy/printlist/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func endpoint(t *testing.T, status int, body string) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts.URL
}

func client(cfg types.ScriptConfig) *Client {
	cfg.MaxRetries = 1
	return NewClient(cfg, nil)
}

func TestClear(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"cleared", http.StatusOK, "CLEARED", false},
		{"cleared with newline", http.StatusOK, "CLEARED\n", false},
		{"wrong token", http.StatusOK, "ERROR: locked", true},
		{"token with extra text", http.StatusOK, "CLEARED 3 rows", true},
		{"server error", http.StatusInternalServerError, "CLEARED", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := client(types.ScriptConfig{ClearURL: endpoint(t, tt.status, tt.body)})
			err := c.Clear(context.Background())
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrUnexpectedResponse)
			var re *ResponseError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.status, re.Status)
			assert.Equal(t, tt.body, re.Body)
		})
	}
}

func TestCopyTemplate(t *testing.T) {
	c := client(types.ScriptConfig{CopyURL: endpoint(t, http.StatusOK, "OK: TEMPLATE COPIED to row 41")})
	require.NoError(t, c.CopyTemplate(context.Background()))

	c = client(types.ScriptConfig{CopyURL: endpoint(t, http.StatusOK, "NO TEMPLATE")})
	assert.ErrorIs(t, c.CopyTemplate(context.Background()), ErrUnexpectedResponse)
}

func TestAllocateBlock(t *testing.T) {
	c := client(types.ScriptConfig{AllocateURL: endpoint(t, http.StatusOK, " 4\n")})
	idx, err := c.AllocateBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, idx)

	for _, body := range []string{"four", "-1", ""} {
		c = client(types.ScriptConfig{AllocateURL: endpoint(t, http.StatusOK, body)})
		_, err = c.AllocateBlock(context.Background())
		assert.ErrorIs(t, err, ErrUnexpectedResponse, "body %q", body)
	}
}

func TestNotConfigured(t *testing.T) {
	c := client(types.ScriptConfig{})
	assert.ErrorIs(t, c.Clear(context.Background()), ErrNotConfigured)
	assert.ErrorIs(t, c.CopyTemplate(context.Background()), ErrNotConfigured)
	_, err := c.AllocateBlock(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := client(types.ScriptConfig{ClearURL: url})
	err := c.Clear(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnexpectedResponse)
}

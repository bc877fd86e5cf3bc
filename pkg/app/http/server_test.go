package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/counter-devnet/pkg/app/errors"
	"github.com/chainsafe/counter-devnet/pkg/config"
)

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, handler, zap.NewNop(), &config.ServerConfig{ShutdownTimeout: time.Second})
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServe_RejectsNilArguments(t *testing.T) {
	assert.Error(t, Serve(context.Background(), nil, nil, nil, &config.ServerConfig{}))
	assert.Error(t, ServeAndWait(context.Background(), http.NotFoundHandler(), nil, nil))
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"not found", apperrors.ResourceNotFoundError(nil, "deployment not found"), http.StatusNotFound, `{"error":"deployment not found","code":404}`},
		{"bad request", apperrors.BadRequestError(errors.New("x"), "invalid JSON"), http.StatusBadRequest, `{"error":"invalid JSON","code":400}`},
		{"internal", errors.New("db down"), http.StatusInternalServerError, `{"error":"Unexpected Service Error","code":500}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := HandleError(func(http.ResponseWriter, *http.Request) error { return tc.err })
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

package pprof

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"remindbot/pkg/logx"
)

func TestValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, Validate(Config{Enabled: true}))
	require.NoError(t, Validate(Config{Enabled: true, Addr: "localhost:0"}))
	require.NoError(t, Validate(Config{Enabled: false, Addr: "0.0.0.0:6060"}))
	require.NoError(t, Validate(Config{Enabled: true, Addr: "0.0.0.0:6060", Token: "s"}))
	require.Error(t, Validate(Config{Enabled: true, Addr: ":6060"}))
	require.Error(t, Validate(Config{Enabled: true, Addr: "nope"}))
}

func TestHandlerAuthAndStatus(t *testing.T) {
	t.Parallel()
	svc := New(Config{Token: "s3cret"}, func(context.Context) any {
		return map[string]int{"tasks": 3}
	}, logx.Nop())
	h := svc.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/status", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/status?token=s3cret", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 3, body["tasks"])

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "ok", rec.Body.String())
}

func TestStartStop(t *testing.T) {
	t.Parallel()
	svc := New(Config{Enabled: true, Addr: "127.0.0.1:0"}, nil, logx.Nop())
	require.NoError(t, svc.Start(context.Background()))
	addr := svc.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, "ok", string(b))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	svc.Stop(ctx)
	require.Empty(t, svc.Addr())

	require.NoError(t, svc.Reconfigure(ctx, Config{Enabled: false}))
	require.Empty(t, svc.Addr())
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercari/internal/api"
	"mercari/internal/blobstore"
	"mercari/internal/config"
	"mercari/internal/store"
)

const testFrontURL = "http://localhost:3000"

type testEnv struct {
	srv     *Server
	handler http.Handler
	store   *store.Store
	images  *blobstore.LocalImages
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnvWithoutDefault(t)
	require.NoError(t, env.images.EnsureDefault(t.Context()))
	return env
}

func newTestEnvWithoutDefault(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "db", "mercari.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	images, err := blobstore.NewLocalImages(filepath.Join(dir, "images"))
	require.NoError(t, err)

	srv := New("127.0.0.1:0", st, images, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv.ConfigureCORS(testFrontURL)
	srv.SetImagesDir(images.Root())
	return &testEnv{srv: srv, handler: srv.Handler(), store: st, images: images}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

type multipartImage struct {
	filename string
	data     []byte
}

func newItemRequest(t *testing.T, fields map[string]string, image *multipartImage) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", image.filename)
		require.NoError(t, err)
		_, err = part.Write(image.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/items", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func TestListenAddrRemoteGuard(t *testing.T) {
	t.Run("allows loopback", func(t *testing.T) {
		t.Setenv(config.AllowRemoteEnvKey, "")
		addr, err := ListenAddr("http://127.0.0.1:9000")
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9000", addr)
	})

	t.Run("allows localhost", func(t *testing.T) {
		t.Setenv(config.AllowRemoteEnvKey, "")
		addr, err := ListenAddr("http://localhost:9000")
		require.NoError(t, err)
		assert.Equal(t, "localhost:9000", addr)
	})

	t.Run("blocks non-loopback by default", func(t *testing.T) {
		t.Setenv(config.AllowRemoteEnvKey, "")
		_, err := ListenAddr("http://0.0.0.0:9000")
		assert.Error(t, err)
	})

	t.Run("allows non-loopback when explicitly enabled", func(t *testing.T) {
		t.Setenv(config.AllowRemoteEnvKey, "true")
		addr, err := ListenAddr("http://0.0.0.0:9000")
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:9000", addr)
	})

	t.Run("requires url", func(t *testing.T) {
		_, err := ListenAddr("")
		assert.Error(t, err)
	})
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/items", nil)
	req.Header.Set("Origin", testFrontURL)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	w := env.do(req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testFrontURL, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "content-type", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSRejectsOtherOrigins(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := env.do(req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSSimpleRequest(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", testFrontURL)
	w := env.do(req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testFrontURL, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/health")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	w = env.do(req)
	assert.Equal(t, "client-supplied", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", maxRequestIDLen+1))
	w = env.do(req)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestRootGreeting(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Hello, world!"}`, w.Body.String())

	w = env.get("/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndInfo(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = env.do(newItemRequest(t, map[string]string{"name": "jacket", "category": "fashion"}, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.get("/v1/info")
	require.Equal(t, http.StatusOK, w.Code)
	info := decodeBody[api.InfoResponse](t, w)
	assert.Positive(t, info.SchemaVersion)
	assert.Equal(t, int64(1), info.TotalItems)
	assert.Equal(t, int64(1), info.TotalCategories)
	assert.Equal(t, env.images.Root(), info.ImagesDir)
}

func TestErrorResponseShape(t *testing.T) {
	env := newTestEnv(t)

	w := env.get("/items/999")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, "item not found", raw["error"])
	assert.Equal(t, "not_found", raw["code"])
	assert.EqualValues(t, ErrCodeItemNotFound, raw["error_code"])
}

func TestAddItemFormURLEncoded(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"name": {"mug"}, "category": {"kitchen"}}
	req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := env.do(req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[api.AddItemResponse](t, w)
	assert.Equal(t, "item received: mug, category: kitchen, image_name: default.jpg", resp.Message)
}

func TestServeStopsOnContextCancel(t *testing.T) {
	env := newTestEnv(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- env.srv.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server still running after cancel")
	}
}

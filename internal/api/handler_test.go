package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harborlens/harborlens/internal/auth"
	"github.com/harborlens/harborlens/internal/config"
	"github.com/harborlens/harborlens/internal/history"
	"github.com/harborlens/harborlens/internal/pipeline"
	"github.com/harborlens/harborlens/internal/storage"
)

func TestHealthEndpoint(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	decodeBody(t, rr, &body)
	if body["service"] != "harborlens-api" {
		t.Fatalf("service = %v", body["service"])
	}
}

func TestReadyWithoutChecksReportsReady(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestReadySurfacesFailingCheck(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{
		Readiness: func(context.Context) error { return errors.New("warehouse offline") },
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	decodeBody(t, rr, &body)
	if body["error_code"] != "NOT_READY" {
		t.Fatalf("error_code = %v", body["error_code"])
	}
}

func TestAuthRequiredWithoutMiddlewareFailsClosed(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Required = true
	handler := NewHandler(cfg, Dependencies{Pipeline: &fakeProcessor{}})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/ask", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestProtectedRoutesRequireKeyWhenAuthEnabled(t *testing.T) {
	validator, err := auth.NewStaticAPIKeyValidator("k1:ask")
	if err != nil {
		t.Fatalf("validator setup: %v", err)
	}
	cfg := testConfig()
	cfg.Auth.Required = true
	handler := NewHandler(cfg, Dependencies{
		Pipeline:       &fakeProcessor{response: pipeline.Response{Answer: "The result is 1."}},
		AuthMiddleware: auth.Middleware(nil, validator),
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newAskRequest(t, "/v1/ask", "total cargo?"))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", rr.Code)
	}

	req := newAskRequest(t, "/v1/ask", "total cargo?")
	req.Header.Set("X-API-Key", "k1")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d", rr.Code)
	}
}

func TestCombineReadinessChecksStopsAtFirstFailure(t *testing.T) {
	calls := 0
	failing := func(context.Context) error { calls++; return errors.New("down") }
	never := func(context.Context) error { calls++; return nil }

	err := CombineReadinessChecks(nil, failing, never)(context.Background())
	if err == nil {
		t.Fatal("expected combined check to fail")
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func testConfig() config.Config {
	cfg := config.Config{}
	cfg.Service.Name = "harborlens-api"
	return cfg
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

type fakeProcessor struct {
	lastRequest pipeline.Request
	response    pipeline.Response
}

func (f *fakeProcessor) Process(_ context.Context, req pipeline.Request) pipeline.Response {
	f.lastRequest = req
	return f.response
}

type fakeSchemaProvider struct {
	schema string
	err    error
}

func (f *fakeSchemaProvider) DescribeSchema(context.Context) (string, error) {
	return f.schema, f.err
}

func (f *fakeSchemaProvider) DialectName() string { return "duckdb" }

type fakeRecorder struct {
	entries []history.Entry
	listErr error
	filter  history.ListFilter
}

func (f *fakeRecorder) Record(_ context.Context, entry history.Entry) (history.Entry, error) {
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeRecorder) List(_ context.Context, filter history.ListFilter) ([]history.Entry, error) {
	f.filter = filter
	return f.entries, f.listErr
}

type fakeExportStore struct {
	lastKey  string
	lastSize int64
	putErr   error
}

func (f *fakeExportStore) Put(_ context.Context, key string, body io.Reader, size int64, _ storage.PutOptions) (storage.ObjectInfo, error) {
	if f.putErr != nil {
		return storage.ObjectInfo{}, f.putErr
	}
	f.lastKey = key
	f.lastSize = size
	_, _ = io.Copy(io.Discard, body)
	return storage.ObjectInfo{Key: key, Size: size}, nil
}

func (f *fakeExportStore) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, storage.ErrObjectNotFound
}

func (f *fakeExportStore) Stat(context.Context, string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{}, storage.ErrObjectNotFound
}

func (f *fakeExportStore) List(context.Context, string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (f *fakeExportStore) Delete(context.Context, string) error { return nil }

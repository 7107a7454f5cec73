package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tableingest/internal/app"
	"tableingest/internal/config"
	"tableingest/internal/datasource"
	"tableingest/internal/ingest"

	_ "tableingest/internal/storage/sqlite"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.Storage = config.Storage{Kind: "sqlite", DSN: ":memory:"}
	cfg.Logging.Level = "error"
	rt, err := app.Open(context.Background(), cfg, io.Discard)
	if err != nil {
		t.Fatalf("app.Open: %v", err)
	}
	t.Cleanup(func() { rt.Close() })

	ts := httptest.NewServer(New(rt, opts).Handler())
	t.Cleanup(ts.Close)
	return ts
}

type upload struct {
	filename string
	content  string
	fields   map[string]string
}

func postUpload(t *testing.T, url string, u upload) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range u.fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if u.filename != "" {
		fw, err := mw.CreateFormFile("file", u.filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(fw, u.content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url+"/api/tables", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return m
}

func TestUploadAndDescribe(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp := postUpload(t, ts.URL, upload{
		filename: "Sales Report.csv",
		content:  "Order ID,Total,Paid\n1,9.5,true\n2,12,false\n",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, decode(t, resp))
	}
	if resp.Header.Get("X-Upload-Id") == "" {
		t.Fatalf("missing X-Upload-Id")
	}
	sum := decode(t, resp)
	if sum["name"] != "Sales_Report" || sum["format"] != "csv" || sum["row_count"] != float64(2) {
		t.Fatalf("summary = %v", sum)
	}
	schema := sum["schema"].(map[string]any)
	if schema["order_id"] != "INTEGER" || schema["total"] != "REAL" || schema["paid"] != "BOOLEAN" {
		t.Fatalf("schema = %v", schema)
	}

	get, err := http.Get(ts.URL + "/api/tables/Sales_Report")
	if err != nil {
		t.Fatal(err)
	}
	if get.StatusCode != http.StatusOK {
		t.Fatalf("describe status = %d", get.StatusCode)
	}
	desc := decode(t, get)
	if desc["row_count"] != float64(2) {
		t.Fatalf("describe = %v", desc)
	}
	rows := desc["sample_rows"].([]any)
	if first := rows[0].(map[string]any); first["paid"] != true {
		t.Fatalf("first sample row = %v", first)
	}
}

func TestUpload_NameAndFormatFields(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp := postUpload(t, ts.URL, upload{
		filename: "export.txt",
		content:  "{\"a\":{\"b\":1}}\n{\"a\":{\"b\":2},\"c\":\"x\"}\n",
		fields:   map[string]string{"name": "events", "format": "ndjson"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, decode(t, resp))
	}
	sum := decode(t, resp)
	if sum["name"] != "events" || sum["format"] != "jsonl" {
		t.Fatalf("summary = %v", sum)
	}
	if _, ok := sum["schema"].(map[string]any)["a__b"]; !ok {
		t.Fatalf("schema = %v", sum["schema"])
	}
}

func TestUpload_Errors(t *testing.T) {
	ts := newTestServer(t, Options{MaxUploadBytes: 1 << 10})

	tests := []struct {
		name string
		u    upload
		want int
		msg  string
	}{
		{"no file", upload{fields: map[string]string{"name": "x"}}, http.StatusBadRequest, "no file"},
		{"unknown extension", upload{filename: "data.xlsx", content: "x"}, http.StatusUnsupportedMediaType, "unknown format"},
		{"unknown format field", upload{filename: "a.csv", content: "id\n1\n", fields: map[string]string{"format": "parquet"}}, http.StatusUnsupportedMediaType, "unknown format"},
		{"malformed json", upload{filename: "a.json", content: `[{"a":1},`}, http.StatusBadRequest, "json"},
		{"empty array", upload{filename: "a.json", content: `[]`}, http.StatusBadRequest, "no records"},
		{"all jsonl lines bad", upload{filename: "a.jsonl", content: "x\ny\n"}, http.StatusBadRequest, "no valid records"},
		{"too large", upload{filename: "big.csv", content: "id\n" + strings.Repeat("1\n", 2048)}, http.StatusRequestEntityTooLarge, "exceeds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postUpload(t, ts.URL, tt.u)
			body := decode(t, resp)
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d; body = %v", resp.StatusCode, tt.want, body)
			}
			msg, _ := body["error"].(string)
			if !strings.Contains(strings.ToLower(msg), tt.msg) {
				t.Fatalf("error = %q, want containing %q", msg, tt.msg)
			}
		})
	}
}

func TestDescribe_NotFound(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + "/api/tables/missing")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if body := decode(t, resp); !strings.Contains(body["error"].(string), "not found") {
		t.Fatalf("body = %v", body)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || decode(t, resp)["status"] != "ok" {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
}

// stubService fails every call with err.
type stubService struct{ err error }

func (s stubService) Ingest(context.Context, *datasource.Document) (*ingest.TableSummary, error) {
	return nil, s.err
}

func (s stubService) Describe(context.Context, string) (*ingest.TableSummary, error) {
	return nil, s.err
}

func (s stubService) Ping(context.Context) error { return s.err }

func TestStoreFailuresAreHidden(t *testing.T) {
	t.Parallel()

	h := New(stubService{err: errors.New("pq: password authentication failed for user admin")}, Options{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tables/t", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("describe status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("store error leaked: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("healthz status = %d, want 503", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	if got := statusFor(&ingest.IngestionError{Err: errors.New("disk full")}); got != http.StatusInternalServerError {
		t.Fatalf("store error status = %d, want 500", got)
	}
}

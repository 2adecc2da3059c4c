package http

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snowwhitepl/wydatki/internal/services"
	"github.com/snowwhitepl/wydatki/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "wydatki.db"), "wydatki_v1")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ledger := services.NewLedger(context.Background(), store)
	return NewServer(":0", ledger, "PLN", 1<<20)
}

func do(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, srv, req)
}

func addEntry(t *testing.T, srv *Server, amount, category, date, note string) entryView {
	t.Helper()
	rr := postForm(t, srv, "/entries", url.Values{
		"amount":   {amount},
		"category": {category},
		"date":     {date},
		"note":     {note},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body %s", rr.Code, rr.Body.String())
	}
	var e entryView
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode created entry: %v", err)
	}
	return e
}

func listEntries(t *testing.T, srv *Server, month string) listResponse {
	t.Helper()
	path := "/entries"
	if month != "" {
		path += "?month=" + url.QueryEscape(month)
	}
	rr := do(t, srv, httptest.NewRequest(http.MethodGet, path, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var resp listResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return resp
}

func TestHealthAndIndex(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
	}

	rr := do(t, srv, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Wydatki") {
		t.Fatalf("index body missing heading")
	}
}

func TestCreateEntryValidationAndSuccess(t *testing.T) {
	srv := newTestServer(t)

	// Wrong method
	rr := do(t, srv, httptest.NewRequest(http.MethodPut, "/entries", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	// Invalid amounts create nothing
	for i, amount := range []string{"abc", "0", "-2"} {
		rr := postForm(t, srv, "/entries", url.Values{"amount": {amount}})
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("case %d: expected 422, got %d", i, rr.Code)
		}
	}
	if resp := listEntries(t, srv, ""); len(resp.Entries) != 0 {
		t.Fatalf("rejected adds created entries: %+v", resp.Entries)
	}

	// Comma separator accepted
	e := addEntry(t, srv, "12,50", "Dom", "2024-01-05", "czynsz")
	if e.Amount != 12.5 || e.DateDisplay != "05.01.2024" {
		t.Fatalf("unexpected entry view: %+v", e)
	}
	if e.AmountDisplay != "12,50 zł" {
		t.Fatalf("amount display = %q", e.AmountDisplay)
	}

	resp := listEntries(t, srv, "")
	if len(resp.Entries) != 1 || resp.Total != 12.5 {
		t.Fatalf("list after add: %+v", resp)
	}
}

func TestMonthFilterAndOptions(t *testing.T) {
	srv := newTestServer(t)
	addEntry(t, srv, "10", "Dom", "2024-01-05", "")
	addEntry(t, srv, "2,50", "Jedzenie", "2024-03-01", "")
	addEntry(t, srv, "7", "Dom", "2023-12-31", "")

	resp := listEntries(t, srv, "")
	wantMonths := []string{"2024-03", "2024-01", "2023-12"}
	if len(resp.Months) != len(wantMonths) {
		t.Fatalf("months = %v, want %v", resp.Months, wantMonths)
	}
	for i := range wantMonths {
		if resp.Months[i] != wantMonths[i] {
			t.Fatalf("months = %v, want %v", resp.Months, wantMonths)
		}
	}
	if resp.Total != 19.5 {
		t.Fatalf("total = %v, want 19.5", resp.Total)
	}

	filtered := listEntries(t, srv, "2024-01")
	if len(filtered.Entries) != 1 || filtered.Total != 10 {
		t.Fatalf("filtered: %+v", filtered)
	}
}

func TestDeleteEntry(t *testing.T) {
	srv := newTestServer(t)
	a := addEntry(t, srv, "1", "", "", "")
	b := addEntry(t, srv, "2", "", "", "")

	rr := do(t, srv, httptest.NewRequest(http.MethodDelete, "/entries/"+a.ID, nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"deleted":true`) {
		t.Fatalf("delete: %d %s", rr.Code, rr.Body.String())
	}

	resp := listEntries(t, srv, "")
	if len(resp.Entries) != 1 || resp.Entries[0].ID != b.ID {
		t.Fatalf("survivors: %+v", resp.Entries)
	}

	rr = do(t, srv, httptest.NewRequest(http.MethodDelete, "/entries/nie-ma", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"deleted":false`) {
		t.Fatalf("delete unknown: %d %s", rr.Code, rr.Body.String())
	}

	// GET on an entry path is not supported
	rr = do(t, srv, httptest.NewRequest(http.MethodGet, "/entries/"+b.ID, nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestClearAll(t *testing.T) {
	srv := newTestServer(t)
	addEntry(t, srv, "1", "", "", "")
	addEntry(t, srv, "2", "", "", "")

	rr := do(t, srv, httptest.NewRequest(http.MethodPost, "/entries/clear", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", rr.Code)
	}
	if resp := listEntries(t, srv, ""); len(resp.Entries) != 0 {
		t.Fatalf("entries after clear: %+v", resp.Entries)
	}
}

func importFile(t *testing.T, srv *Server, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "wydatki.json")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return do(t, srv, req)
}

func TestImport(t *testing.T) {
	srv := newTestServer(t)
	addEntry(t, srv, "99", "Stare", "2020-01-01", "")

	// Non-array top level fails and leaves the collection alone.
	rr := importFile(t, srv, `{"a":1}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("import status = %d", rr.Code)
	}
	var errResp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &errResp); err != nil || errResp.Error == "" {
		t.Fatalf("expected surfaced error, got %s", rr.Body.String())
	}
	if resp := listEntries(t, srv, ""); len(resp.Entries) != 1 || resp.Entries[0].Category != "Stare" {
		t.Fatalf("failed import changed entries: %+v", resp.Entries)
	}

	// A valid array replaces everything, with element defaults applied.
	rr = importFile(t, srv, `[{"amount":"5,50"}]`)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"imported":1`) {
		t.Fatalf("import: %d %s", rr.Code, rr.Body.String())
	}
	resp := listEntries(t, srv, "")
	if len(resp.Entries) != 1 {
		t.Fatalf("entries after import: %+v", resp.Entries)
	}
	e := resp.Entries[0]
	if e.Amount != 5.5 || e.Category != "Inne" || e.Note != "" {
		t.Fatalf("import defaults: %+v", e)
	}
}

func TestExportRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	addEntry(t, srv, "1,10", "Dom", "2024-01-05", "a")
	addEntry(t, srv, "2.20", "Jedzenie", "2024-02-06", "b")

	rr := do(t, srv, httptest.NewRequest(http.MethodGet, "/export", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("export status = %d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="wydatki.json"`) {
		t.Fatalf("content disposition = %q", cd)
	}
	exported := rr.Body.String()

	// Clear, then import the exported file: the collection comes back.
	do(t, srv, httptest.NewRequest(http.MethodPost, "/entries/clear", nil))
	rr = importFile(t, srv, exported)
	if rr.Code != http.StatusOK {
		t.Fatalf("re-import status = %d body %s", rr.Code, rr.Body.String())
	}
	resp := listEntries(t, srv, "")
	if len(resp.Entries) != 2 || math.Abs(resp.Total-3.3) > 1e-9 {
		t.Fatalf("round trip: %+v", resp)
	}
	if resp.Entries[0].Category != "Dom" || resp.Entries[1].Category != "Jedzenie" {
		t.Fatalf("order lost: %+v", resp.Entries)
	}
}

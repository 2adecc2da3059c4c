package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/snowwhitepl/wydatki/internal/core"
)

type entryView struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	AmountDisplay string  `json:"amount_display"`
	Category      string  `json:"category"`
	Date          string  `json:"date"`
	DateDisplay   string  `json:"date_display"`
	Note          string  `json:"note"`
}

type listResponse struct {
	Month        string      `json:"month"`
	Months       []string    `json:"months"`
	Entries      []entryView `json:"entries"`
	Total        float64     `json:"total"`
	TotalDisplay string      `json:"total_display"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Today string
	}{
		Today: core.Today(),
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleEntries serves the filtered list on GET and adds an entry on POST.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListEntries(w, r)
	case http.MethodPost:
		s.handleCreateEntry(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		month = core.MonthAll
	}

	entries, total := s.ledger.View(month)
	resp := listResponse{
		Month:        month,
		Months:       s.ledger.Months(),
		Entries:      make([]entryView, 0, len(entries)),
		Total:        total,
		TotalDisplay: core.FormatAmount(total, s.currency),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, s.viewOf(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request format"})
		return
	}

	e, err := s.ledger.Add(r.Context(),
		r.Form.Get("amount"),
		sanitizeInput(r.Form.Get("category")),
		sanitizeInput(r.Form.Get("date")),
		sanitizeInput(r.Form.Get("note")))
	if errors.Is(err, core.ErrInvalidAmount) {
		// Validation failure for the interactive add is quiet: the UI
		// refocuses the amount field, no dialog is shown.
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Entry add error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "saving failed"})
		return
	}

	writeJSON(w, http.StatusCreated, s.viewOf(e))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", "DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/entries/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	found, err := s.ledger.Delete(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Entry delete error", "error", err, "entry_id", id)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "saving failed"})
		return
	}

	// A missing id is a no-op, not an error.
	writeJSON(w, http.StatusOK, struct {
		Deleted bool `json:"deleted"`
	}{Deleted: found})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// The blocking confirmation dialog runs client-side before this
	// request is ever sent.
	if err := s.ledger.Clear(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Clear error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "saving failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport streams the entire collection, regardless of the active
// month filter, as a downloadable pretty-printed JSON file with a
// fixed name.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	data, err := s.ledger.Export()
	if err != nil {
		slog.ErrorContext(r.Context(), "Export error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "export failed"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="wydatki.json"`)
	_, _ = w.Write(data)
}

// handleImport reads the uploaded file and replaces the collection
// with its contents, all or nothing. Parse and shape errors are
// surfaced to the user verbatim.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.importMax)
	file, _, err := r.FormFile("file")
	if err != nil {
		slog.WarnContext(r.Context(), "Import upload error", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.WarnContext(r.Context(), "Import read error", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	n, err := s.ledger.Import(r.Context(), data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Imported int `json:"imported"`
	}{Imported: n})
}

func (s *Server) viewOf(e core.Entry) entryView {
	return entryView{
		ID:            e.ID,
		Amount:        e.Amount,
		AmountDisplay: core.FormatAmount(e.Amount, s.currency),
		Category:      e.Category,
		Date:          e.Date,
		DateDisplay:   core.FormatDate(e.Date),
		Note:          e.Note,
	}
}

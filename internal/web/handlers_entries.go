package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/checkbench/internal/core"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	opts, err := viewOptions(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	view, err := s.wb.View(chi.URLParam(r, "sessionID"), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	setVersion(w, view.Version)
	writeJSON(w, http.StatusOK, view)
}

type manualRequest struct {
	core.ManualEntry
	core.Classification
}

type manualResponse struct {
	Entry core.CheckEntry `json:"entry"`
	core.LedgerChange
}

func (s *Server) handleAddManual(w http.ResponseWriter, r *http.Request) {
	version, err := ifMatch(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req manualRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	entry, change, err := s.wb.AddManual(r.Context(), chi.URLParam(r, "sessionID"), req.ManualEntry, req.Classification, version)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	status := http.StatusCreated
	if change.Added == 0 {
		status = http.StatusOK
	}
	setVersion(w, change.Version)
	writeJSON(w, status, manualResponse{Entry: entry, LedgerChange: change})
}

type keysRequest struct {
	Keys []core.EntryKey `json:"keys"`
}

func (s *Server) handleRemoveEntries(w http.ResponseWriter, r *http.Request) {
	version, err := ifMatch(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req keysRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if len(req.Keys) == 0 {
		s.respondError(w, r, fmt.Errorf("%w: no keys to remove", core.ErrInvalidRequest))
		return
	}

	change, err := s.wb.RemoveEntries(r.Context(), chi.URLParam(r, "sessionID"), req.Keys, version)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	setVersion(w, change.Version)
	writeJSON(w, http.StatusOK, change)
}

func (s *Server) handleToggleSelect(w http.ResponseWriter, r *http.Request) {
	version, err := ifMatch(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var key core.EntryKey
	if err := decodeJSON(r, &key); err != nil {
		s.respondError(w, r, err)
		return
	}

	st, err := s.wb.ToggleSelect(chi.URLParam(r, "sessionID"), key, version)
	s.writeSelection(w, r, st, err)
}

// handleSelectAll toggles selection over the view described by the query.
func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	version, err := ifMatch(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	opts, err := viewOptions(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	st, err := s.wb.SelectAll(chi.URLParam(r, "sessionID"), opts, version)
	s.writeSelection(w, r, st, err)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	version, err := ifMatch(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	st, err := s.wb.ClearSelection(chi.URLParam(r, "sessionID"), version)
	s.writeSelection(w, r, st, err)
}

func (s *Server) writeSelection(w http.ResponseWriter, r *http.Request, st core.SelectionState, err error) {
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	setVersion(w, st.Version)
	writeJSON(w, http.StatusOK, st)
}

var exportContentTypes = map[core.ExportFormat]string{
	core.FormatCSV:  "text/csv; charset=utf-8",
	core.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// handleExport downloads the selection of the view, or the whole view.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	opts, err := viewOptions(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	format := core.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = core.FormatCSV
	}

	file, err := s.wb.Export(chi.URLParam(r, "sessionID"), opts, format)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", exportContentTypes[file.Format])
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("X-Entry-Count", strconv.Itoa(file.Entries))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}

// handleSubmit submits the selection of the view (filter in the query), or
// the whole view when nothing is selected.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	version, err := ifMatch(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	opts, err := viewOptions(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.wb.Submit(r.Context(), chi.URLParam(r, "sessionID"), opts, version)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	setVersion(w, res.Version)
	writeJSON(w, http.StatusOK, res)
}

package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/checkbench/internal/core"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is allowed on top of the file size for form fields and
// part headers.
const multipartOverhead = 1 << 20

// handleImport accepts a multipart upload: the file in "file" plus the batch
// classification in source, transactionType, originSource and listGroup.
// An optional delimiter field overrides detection.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, r, fmt.Errorf("%w: limit %d bytes", core.ErrFileTooLarge, maxSize))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	delimiter := r.FormValue("delimiter")
	if delimiter == "" {
		delimiter = s.cfg.Import.ImportDelimiter()
	}

	preview, err := s.wb.Import(r.Context(), chi.URLParam(r, "sessionID"), core.ImportRequest{
		FileName:  header.Filename,
		Body:      file,
		Delimiter: delimiter,
		Classification: core.Classification{
			Source:          core.SourceType(r.FormValue("source")),
			TransactionType: core.TransactionType(r.FormValue("transactionType")),
			OriginSource:    r.FormValue("originSource"),
			ListGroup:       r.FormValue("listGroup"),
		},
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Location", r.URL.Path+"/"+preview.ID)
	writeJSON(w, http.StatusCreated, preview)
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	preview, err := s.wb.Preview(chi.URLParam(r, "sessionID"), chi.URLParam(r, "importID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handleDiscardImport(w http.ResponseWriter, r *http.Request) {
	if err := s.wb.DiscardImport(chi.URLParam(r, "sessionID"), chi.URLParam(r, "importID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type acceptRequest struct {
	// Rows are preview row indexes; absent means every row.
	Rows []int `json:"rows"`
}

func (s *Server) handleAcceptImport(w http.ResponseWriter, r *http.Request) {
	version, err := ifMatch(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req acceptRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	change, err := s.wb.AcceptImport(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "importID"), req.Rows, version)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	setVersion(w, change.Version)
	writeJSON(w, http.StatusOK, change)
}

package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tableingest/internal/datasource"
	"tableingest/internal/ingest"
	"tableingest/internal/logging"
	"tableingest/internal/parser"
	"tableingest/internal/storage"
)

// multipartMemory is how much of an upload is buffered in memory before the
// multipart reader spills to temporary files.
const multipartMemory = 32 << 20

// handleUpload ingests the multipart "file" field. The table name defaults
// to the uploaded file name and the format to its extension.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	uploadID := uuid.NewString()
	w.Header().Set("X-Upload-Id", uploadID)

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", s.opts.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}
	var format parser.Format
	if v := strings.TrimSpace(r.FormValue("format")); v != "" {
		format, err = parser.ParseFormat(v)
	} else {
		format, err = parser.FormatFromFilename(header.Filename)
	}
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}

	log := logging.WithFields(r.Context(), "upload_id", uploadID, "file", header.Filename, "bytes", len(content))
	log.Info("upload received", "name", name, "format", string(format))

	sum, err := s.svc.Ingest(r.Context(), &datasource.Document{
		Ref:     header.Filename,
		Name:    name,
		Format:  format,
		Content: content,
	})
	if err != nil {
		status := statusFor(err)
		log.Warn("upload failed", "status", status, "error", err)
		writeError(w, status, messageFor(status, err))
		return
	}
	log.Info("upload ingested", "table", sum.Name, "rows", sum.RowCount)
	writeJSON(w, http.StatusCreated, sum)
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sum, err := s.svc.Describe(r.Context(), name)
	if err != nil {
		status := statusFor(err)
		if status >= 500 {
			logging.FromContext(r.Context()).Error("describe failed", "table", name, "error", err)
		}
		writeError(w, status, messageFor(status, err))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// statusFor maps an ingestion or describe error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, parser.ErrUnknownFormat):
		return http.StatusUnsupportedMediaType
	case ingest.IsInputError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageFor keeps store failures out of responses; input errors are
// reported verbatim so the client can fix the document.
func messageFor(status int, err error) string {
	if status >= 500 {
		return "internal error"
	}
	return err.Error()
}

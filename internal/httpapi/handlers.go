package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-widget-renamer/internal/pdf"
)

const (
	uploadField     = "file"
	pdfContentType  = "application/pdf"
	jsonContentType = "application/json"

	// multipart framing allowed on top of the file itself
	multipartOverhead = 1 << 20
)

var errFileTooLarge = errors.New("file too large")

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type healthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version,omitempty"`
	VocabularySize int    `json:"vocabulary_size"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "ok",
		Version:        s.opts.Version,
		VocabularySize: s.opts.VocabularySize,
	})
}

// handleRename returns the renamed PDF as an attachment, or the JSON report
// when the client accepts JSON.
func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	data, status, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, status, err)
		return
	}

	res, err := s.service.Rename(r.Context(), data)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	s.logger.Info("document renamed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("pipeline", res.Report.Pipeline),
		zap.Int("widgets", res.Report.TotalWidgets),
		zap.Int("changed", res.Report.ChangedWidgets),
		zap.Float64("accuracy", res.Report.Accuracy))

	if acceptsJSON(r) {
		writeJSON(w, http.StatusOK, res.Report)
		return
	}

	w.Header().Set("Content-Type", pdfContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.newName()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.PDF)
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	data, status, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, status, err)
		return
	}

	rows, err := s.service.ExtractLabels(r.Context(), data)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// readUpload pulls the PDF out of the multipart "file" field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	limit := s.validator.MaxFileSize()
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, http.StatusRequestEntityTooLarge, errFileTooLarge
		}
		return nil, http.StatusBadRequest, fmt.Errorf("missing %q upload: %w", uploadField, err)
	}
	defer file.Close()

	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil || mediaType != pdfContentType {
		return nil, http.StatusUnsupportedMediaType,
			fmt.Errorf("unsupported content type %q, expected %s", header.Header.Get("Content-Type"), pdfContentType)
	}

	reader := io.Reader(file)
	if limit > 0 {
		reader = io.LimitReader(file, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("read upload: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, http.StatusRequestEntityTooLarge, errFileTooLarge
	}

	if err := s.validator.ValidateBytes(data); err != nil {
		return nil, http.StatusBadRequest, err
	}
	return data, http.StatusOK, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	reqID := middleware.GetReqID(r.Context())
	fields := []zap.Field{
		zap.String("request_id", reqID),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Warn("request rejected", fields...)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), RequestID: reqID})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pdf.ErrInvalidDocument):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func acceptsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		if mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part)); err == nil && mediaType == jsonContentType {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func attachmentName() string {
	return uuid.NewString() + ".pdf"
}

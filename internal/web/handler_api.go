package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/vbonduro/pantrychef/internal/domain"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	imageData, status, err := s.readUpload(r)
	if err != nil {
		s.writeError(w, status, err.Error())
		return
	}

	result, err := s.service.Detect(r.Context(), imageData)
	if err != nil {
		s.logger.Error("detect failed", "request_id", requestID(r.Context()), "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusInternalServerError, validationDetail(err))
		return
	}

	recipe, err := s.service.Generate(r.Context(), req)
	if err != nil {
		s.logger.Error("generate failed", "request_id", requestID(r.Context()), "error", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, recipe)
}

// decodeBody decodes exactly one JSON value from a body of at most
// maxRequestSize bytes.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// readUpload returns the bytes of the multipart "file" field. On failure it
// also returns the status the caller should respond with.
func (s *Server) readUpload(r *http.Request) ([]byte, int, error) {
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("failed to parse form: %w", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("file is required")
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to read file: %w", err)
	}
	return data, http.StatusOK, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

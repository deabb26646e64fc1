package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/radiusdt/dsp-console/internal/middleware"
	"github.com/radiusdt/dsp-console/internal/models"
	"github.com/radiusdt/dsp-console/internal/objectstore"
	"github.com/radiusdt/dsp-console/internal/sheet"
	"go.uber.org/zap"
)

// envelope is the body of every API response.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respond(w http.ResponseWriter, code int, status, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(envelope{Status: status, Message: message, Data: data})
}

func ok(w http.ResponseWriter, message string, data any) {
	respond(w, http.StatusOK, "success", message, data)
}

func created(w http.ResponseWriter, message string, data any) {
	respond(w, http.StatusCreated, "success", message, data)
}

// writeError maps err onto a status code. Unclassified errors are logged
// and reported as a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		code    int
		message = err.Error()
		data    any
		fe      *sheet.FormatError
		tooBig  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &fe):
		code = http.StatusBadRequest
		data = map[string]int{"rows_processed": fe.Processed}
	case errors.As(err, &tooBig):
		code = http.StatusRequestEntityTooLarge
		message = fmt.Sprintf("file exceeds %d bytes", tooBig.Limit)
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrInvalidFormat):
		code = http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		code = http.StatusForbidden
		message = "you do not have permission to perform this action"
	case errors.Is(err, models.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		code = http.StatusConflict
	default:
		code = http.StatusInternalServerError
		message = "internal server error"
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	respond(w, code, "error", message, data)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return models.NewValidationError("", "invalid request body: "+err.Error())
	}
	return nil
}

func actorOf(r *http.Request) (models.Actor, error) {
	a, found := middleware.ActorFromContext(r.Context())
	if !found {
		return models.Actor{}, fmt.Errorf("no actor in request: %w", models.ErrUnauthorized)
	}
	return a, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("id", "invalid id")
	}
	return id, nil
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

func contentTypeOf(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".xlsx":
		return objectstore.ContentTypeXLSX
	case ".csv":
		return objectstore.ContentTypeCSV
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

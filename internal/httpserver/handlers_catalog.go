package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/radiusdt/dsp-console/internal/models"
)

// maxCreativeBytes caps creative asset uploads.
const maxCreativeBytes = 32 << 20

func (s *Server) handleListCreatives(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	creatives, err := s.creativeService.ListCreatives(r.Context(), actor, r.URL.Query().Get("query"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "", creatives)
}

// handleCreateCreative accepts a multipart form with name, creative_type,
// description and an optional file part.
func (s *Server) handleCreateCreative(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCreativeBytes+1<<20)
	if err := r.ParseMultipartForm(maxCreativeBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, r, err)
			return
		}
		s.writeError(w, r, models.NewValidationError("", "expected multipart form"))
		return
	}

	c := &models.Creative{
		Name:         r.FormValue("name"),
		CreativeType: models.CreativeType(r.FormValue("creative_type")),
		Description:  r.FormValue("description"),
	}

	var (
		filename string
		body     []byte
	)
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		filename = header.Filename
		if body, err = io.ReadAll(file); err != nil {
			s.writeError(w, r, fmt.Errorf("failed to read creative file: %w", err))
			return
		}
	case !errors.Is(err, http.ErrMissingFile):
		s.writeError(w, r, models.NewValidationError("file", err.Error()))
		return
	}

	out, err := s.creativeService.CreateCreative(r.Context(), actor, c, filename, body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "creative created", out)
}

// ---- Lookups ----

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	values, err := s.lookupService.Values(r.Context(), models.LookupKind(chi.URLParam(r, "kind")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "", values)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := s.lookupService.Locations(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "", locations)
}

func (s *Server) handleTargetTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.lookupService.TargetTypes(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "", types)
}

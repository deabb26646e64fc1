package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/radiusdt/dsp-console/internal/models"
)

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.campaignService.ListCampaigns(r.Context(), actor,
		r.URL.Query().Get("query"), queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "", page)
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in models.CampaignInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.campaignService.CreateCampaign(r.Context(), actor, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "campaign created", c)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.campaignService.GetCampaign(r.Context(), actor, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "", c)
}

// handleReplaceCampaign is PUT: the name must be present.
func (s *Server) handleReplaceCampaign(w http.ResponseWriter, r *http.Request) {
	s.updateCampaign(w, r, true)
}

func (s *Server) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	s.updateCampaign(w, r, false)
}

func (s *Server) updateCampaign(w http.ResponseWriter, r *http.Request, full bool) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in models.CampaignInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if full && in.Name == nil {
		s.writeError(w, r, models.NewValidationError("name", "name is required"))
		return
	}
	c, err := s.campaignService.UpdateCampaign(r.Context(), actor, id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "campaign updated", c)
}

func (s *Server) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.campaignService.DeleteCampaign(r.Context(), actor, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "campaign deleted", nil)
}

// ---- Reports ----

func (s *Server) handleUploadReport(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	maxBytes := s.config.Upload.MaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, r, err)
			return
		}
		s.writeError(w, r, models.NewValidationError("file", "no file uploaded"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, models.NewValidationError("file", "no file uploaded"))
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	if int64(len(body)) > maxBytes {
		s.writeError(w, r, &http.MaxBytesError{Limit: maxBytes})
		return
	}

	res, err := s.reportService.Upload(r.Context(), actor, id, header.Filename, body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, fmt.Sprintf("%d rows processed", res.RowsProcessed), res)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	link, err := s.reportService.Report(r.Context(), actor, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "", link)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	links, err := s.reportService.Reports(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "", links)
}

func (s *Server) handleReportHistory(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	history, err := s.reportService.History(r.Context(), actor, id, queryInt(r, "limit"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "", history)
}

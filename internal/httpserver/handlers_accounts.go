package httpserver

import (
	"net/http"

	"github.com/radiusdt/dsp-console/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := decodeJSON(r, &reg); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.accountService.Register(r.Context(), reg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "user registered", u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		s.writeError(w, r, models.NewValidationError("", "username and password are required"))
		return
	}
	pair, err := s.accountService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "login successful", pair)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	pair, err := s.accountService.Refresh(r.Context(), req.Refresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "token refreshed", pair)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.accountService.Logout(r.Context(), req.Refresh); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "logged out", nil)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.accountService.Profile(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "", u)
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.accountService.ChangePassword(r.Context(), actor, req.OldPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "password updated", nil)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in models.ProfileUpdate
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.accountService.UpdateProfile(r.Context(), actor, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "user updated", u)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.accountService.ListUsers(r.Context(), actor, queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "", page)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
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
	u, err := s.accountService.GetUser(r.Context(), actor, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "", u)
}

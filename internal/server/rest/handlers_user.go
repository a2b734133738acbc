package rest

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/authgate"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type registerResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type profileResponse struct {
	Username  string  `json:"username"`
	Nickname  *string `json:"nickname"`
	Email     *string `json:"email"`
	AvatarURL *string `json:"avatar_url"`
	Role      string  `json:"role"`
	IsActive  bool    `json:"is_active"`
}

func newProfileResponse(u *models.User) profileResponse {
	return profileResponse{
		Username:  u.Username,
		Nickname:  u.Nickname,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		IsActive:  u.IsActive,
	}
}

type profileUpdateRequest struct {
	Nickname  *string `json:"nickname"`
	Email     *string `json:"email"`
	AvatarURL *string `json:"avatar_url"`
}

var errNoSubject = common.Unauthorized("Unauthorized", nil)

// subject returns the username the gate stored on the request.
func subject(r *http.Request) (string, error) {
	name, ok := authgate.SubjectFromContext(r.Context())
	if !ok {
		return "", errNoSubject
	}
	return name, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, common.Invalid("Malformed JSON body"))
		return
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{ID: user.ID, Username: user.Username})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	name, err := subject(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": name})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	name, err := subject(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.users.Profile(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(user))
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	name, err := subject(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req profileUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, common.Invalid("Malformed JSON body"))
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), name, models.ProfileUpdate{
		Nickname:  req.Nickname,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfileResponse(user))
}

func (s *Server) handleRevokeUserTokens(w http.ResponseWriter, r *http.Request) {
	name, err := subject(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	caller, err := s.users.Profile(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if caller.Role != common.RoleAdmin {
		writeDetail(w, http.StatusForbidden, "Admin privileges required")
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, r, common.Invalid("User id must be a positive integer"))
		return
	}
	target, err := s.users.ByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	n, err := s.auth.RevokeAllForUser(r.Context(), target.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info(r.Context(), "sessions revoked by admin", "admin", name, "user_id", target.ID, "count", n)
	writeJSON(w, http.StatusOK, map[string]int64{"revoked": n})
}

package rest

import (
	"mime"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

// tokenResponse follows RFC 6749 section 5.1.
type tokenResponse struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	TokenType             string `json:"token_type"`
	ExpiresIn             int    `json:"expires_in"`
	RefreshTokenExpiresIn int    `json:"refresh_token_expires_in"`
}

func newTokenResponse(p *services.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:           p.AccessToken,
		RefreshToken:          p.RefreshToken,
		TokenType:             "bearer",
		ExpiresIn:             p.ExpiresIn,
		RefreshTokenExpiresIn: p.RefreshExpiresIn,
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

// readCredentials accepts the OAuth2 password form (urlencoded or
// multipart) and, for API clients, a JSON body.
func readCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	var c credentials

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := decodeJSON(w, r, &c); err != nil {
			return c, common.Invalid("Malformed JSON body")
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxRequestBody); err != nil {
			return c, common.Invalid("Malformed form body")
		}
		c.Username, c.Password = r.PostFormValue("username"), r.PostFormValue("password")
	default:
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := r.ParseForm(); err != nil {
			return c, common.Invalid("Malformed form body")
		}
		c.Username, c.Password = r.PostForm.Get("username"), r.PostForm.Get("password")
	}

	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" || c.Password == "" {
		return c, common.Invalid("username and password are required")
	}
	return c, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(w, r)
	if err != nil {
		s.writeGrantError(w, r, err)
		return
	}

	pair, err := s.auth.Login(r.Context(), c.Username, c.Password)
	if err != nil {
		s.writeGrantError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, newTokenResponse(pair))
}

func readRefreshToken(w http.ResponseWriter, r *http.Request) (string, error) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", common.Invalid("Malformed JSON body")
	}
	if req.RefreshToken == "" {
		return "", common.Invalid("refresh_token is required")
	}
	return req.RefreshToken, nil
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, err := readRefreshToken(w, r)
	if err != nil {
		s.writeGrantError(w, r, err)
		return
	}

	pair, err := s.auth.Refresh(r.Context(), token)
	if err != nil {
		s.writeGrantError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, newTokenResponse(pair))
}

// handleLogout answers 200 for unknown, revoked and expired tokens alike.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, err := readRefreshToken(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.auth.Logout(r.Context(), token)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenPair mirrors the server's token response.
type TokenPair struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	TokenType             string `json:"token_type"`
	ExpiresIn             int    `json:"expires_in"`
	RefreshTokenExpiresIn int    `json:"refresh_token_expires_in"`
}

type RegisteredUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Login uses the OAuth2 password form, as a browser-based client would.
func (c *HTTPClient) Login(ctx context.Context, username string, password []byte) (*TokenPair, error) {
	form := url.Values{"username": {username}, "password": {string(password)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var pair TokenPair
	if err := c.do(req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *HTTPClient) Register(ctx context.Context, username string, password []byte) (*RegisteredUser, error) {
	var u RegisteredUser
	err := c.postJSON(ctx, "/user/register", map[string]string{"username": username, "password": string(password)}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	if err := c.postJSON(ctx, "/auth/refresh", map[string]string{"refresh_token": refreshToken}, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *HTTPClient) Logout(ctx context.Context, refreshToken string) error {
	return c.postJSON(ctx, "/auth/logout", map[string]string{"refresh_token": refreshToken}, nil)
}

func (c *HTTPClient) WhoAmI(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user/whoami", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var resp struct {
		Username string `json:"username"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.Username, nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var envelope struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Detail           string `json:"detail"`
	}
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	if json.Unmarshal(body, &envelope) == nil {
		switch {
		case envelope.Error != "":
			apiErr.Code = envelope.Error
			apiErr.Message = envelope.ErrorDescription
		case envelope.Detail != "":
			apiErr.Message = envelope.Detail
		}
	}
	return apiErr
}

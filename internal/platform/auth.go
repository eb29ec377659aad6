package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wall/internal/config"
	"wall/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClient wraps the platform's token-issuing auth API. The platform owns
// identities, credentials, and session lifecycle; this client only moves
// requests and tokens across the wire.
type AuthClient struct {
	baseURL   string
	anonKey   string
	jwtSecret []byte
	http      *http.Client
}

// NewAuthClient creates an auth client from gateway configuration.
func NewAuthClient(cfg *config.Config) *AuthClient {
	return &AuthClient{
		baseURL:   cfg.AuthURL,
		anonKey:   cfg.AuthAnonKey,
		jwtSecret: []byte(cfg.AuthJWTSecret),
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

type authUserPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int             `json:"expires_in"`
	User        authUserPayload `json:"user"`
	// Signup without auto-confirm returns a bare user object instead of a
	// session; these fields catch that shape.
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authErrorPayload struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	Msg         string `json:"msg"`
}

func (p authErrorPayload) message() string {
	switch {
	case p.Description != "":
		return p.Description
	case p.Msg != "":
		return p.Msg
	case p.Error != "":
		return p.Error
	}
	return "auth request failed"
}

func (a *AuthClient) do(ctx context.Context, method, path, token string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, models.NewAuthError(fmt.Sprintf("encode auth request: %v", err))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, models.NewAuthError(fmt.Sprintf("build auth request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if a.anonKey != "" {
		req.Header.Set("apikey", a.anonKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, models.NewAuthError(fmt.Sprintf("auth request failed: %v", err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewAuthError(fmt.Sprintf("read auth response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errPayload authErrorPayload
		_ = json.Unmarshal(payload, &errPayload)
		return nil, models.NewAuthError(errPayload.message())
	}

	return payload, nil
}

func (r authResponse) session() (*models.Session, *models.AuthUser) {
	if r.AccessToken == "" {
		// No live session: sign-up pending email confirmation.
		if r.User.ID != "" {
			return nil, &models.AuthUser{ID: r.User.ID, Email: r.User.Email}
		}
		if r.ID != "" {
			return nil, &models.AuthUser{ID: r.ID, Email: r.Email}
		}
		return nil, nil
	}
	user := models.AuthUser{ID: r.User.ID, Email: r.User.Email}
	return &models.Session{
		AccessToken: r.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(r.ExpiresIn) * time.Second),
		User:        user,
	}, &user
}

// SignUp creates an identity with the auth service. When the platform defers
// the session (email confirmation pending), the returned session is nil and
// the user is still populated.
func (a *AuthClient) SignUp(ctx context.Context, email, password string, data map[string]interface{}) (*models.Session, *models.AuthUser, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
	}
	if len(data) > 0 {
		body["data"] = data
	}

	payload, err := a.do(ctx, http.MethodPost, "/signup", "", body)
	if err != nil {
		return nil, nil, err
	}

	var resp authResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, nil, models.NewAuthError(fmt.Sprintf("decode auth response: %v", err))
	}
	sess, user := resp.session()
	if user == nil {
		return nil, nil, models.NewAuthError("auth service returned no user")
	}
	return sess, user, nil
}

// SignInWithPassword establishes a session for existing credentials.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
	}

	payload, err := a.do(ctx, http.MethodPost, "/token?grant_type=password", "", body)
	if err != nil {
		return nil, err
	}

	var resp authResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, models.NewAuthError(fmt.Sprintf("decode auth response: %v", err))
	}
	sess, _ := resp.session()
	if sess == nil {
		return nil, models.NewAuthError("auth service returned no session")
	}
	return sess, nil
}

// SignOut invalidates the session behind the given access token.
func (a *AuthClient) SignOut(ctx context.Context, token string) error {
	_, err := a.do(ctx, http.MethodPost, "/logout", token, nil)
	return err
}

// UserFromToken verifies an access token locally against the platform JWT
// secret and extracts the identity claims. An empty token yields (nil, nil):
// "no session" is not an error.
func (a *AuthClient) UserFromToken(token string) (*models.AuthUser, error) {
	if token == "" {
		return nil, nil
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, nil
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, nil
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, nil
	}
	email, _ := claims["email"].(string)

	return &models.AuthUser{ID: sub, Email: email}, nil
}

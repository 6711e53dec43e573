package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrSnakeDoc/gieok/internal/logger"
	"github.com/MrSnakeDoc/gieok/internal/utils"
)

// Options configures a GoTrue client.
type Options struct {
	BaseURL   string        // provider base URL without trailing slash
	APIKey    string        // anon key, sent as "apikey"
	JWTSecret string        // optional; enables local HS256 verification
	Timeout   time.Duration // per provider call
}

type GoTrue struct {
	base   string
	apiKey string
	secret []byte
	http   *http.Client
	log    logger.Logger
}

func NewGoTrue(opts Options, log logger.Logger) *GoTrue {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	g := &GoTrue{
		base:   strings.TrimRight(opts.BaseURL, "/"),
		apiKey: opts.APIKey,
		http:   &http.Client{Timeout: opts.Timeout},
		log:    log,
	}
	if opts.JWTSecret != "" {
		g.secret = []byte(opts.JWTSecret)
	}
	return g
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	User        user   `json:"user"`
}

type user struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

// claims mirrors the GoTrue access token payload.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SignIn exchanges an email and password for an access token.
func (g *GoTrue) SignIn(ctx context.Context, email, password string) (Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return Session{}, fmt.Errorf("encode sign in: %w", err)
	}

	resp, err := g.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body)
	if err != nil {
		return Session{}, err
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK {
		if isInvalidCredentials(resp) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("sign in: status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Session{}, fmt.Errorf("decode token response: %w", errors.Join(ErrUnavailable, err))
	}
	if tr.AccessToken == "" {
		return Session{}, fmt.Errorf("sign in: empty access token: %w", ErrUnavailable)
	}

	s := Session{
		Valid:       true,
		SubjectID:   tr.User.ID,
		Email:       tr.User.Email,
		AccessToken: tr.AccessToken,
	}
	if tr.ExpiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return s, nil
}

// GetSession resolves token into a session. With a JWT secret the token is
// verified locally, otherwise the provider is asked. Any failure yields an
// error and an invalid session.
func (g *GoTrue) GetSession(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}
	if g.secret != nil {
		return g.verifyLocal(token)
	}

	resp, err := g.do(ctx, http.MethodGet, "/auth/v1/user", token, nil)
	if err != nil {
		return Session{}, err
	}
	defer drain(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Session{}, ErrNoSession
	case resp.StatusCode != http.StatusOK:
		return Session{}, fmt.Errorf("get user: status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var u user
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return Session{}, fmt.Errorf("decode user: %w", errors.Join(ErrUnavailable, err))
	}
	if u.ID == "" {
		return Session{}, ErrNoSession
	}
	return Session{Valid: true, SubjectID: u.ID, Email: u.Email, AccessToken: token}, nil
}

func (g *GoTrue) verifyLocal(token string) (Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return g.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Session{}, ErrNoSession
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.Subject == "" {
		return Session{}, ErrNoSession
	}

	s := Session{Valid: true, SubjectID: c.Subject, Email: c.Email, AccessToken: token}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s, nil
}

// SignOut revokes token at the provider. A token the provider no longer
// knows is treated as already signed out.
func (g *GoTrue) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	resp, err := g.do(ctx, http.MethodPost, "/auth/v1/logout", token, nil)
	if err != nil {
		return err
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusUnauthorized, http.StatusNotFound:
		return nil
	default:
		return fmt.Errorf("sign out: status %d: %w", resp.StatusCode, ErrUnavailable)
	}
}

func (g *GoTrue) do(ctx context.Context, method, path, token string, body []byte) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.base+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", errors.Join(ErrUnavailable, err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.apiKey != "" {
		req.Header.Set("apikey", g.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		g.log.Warn("identity provider call failed",
			logger.String("method", method),
			logger.String("path", strings.SplitN(path, "?", 2)[0]),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, errors.Join(ErrUnavailable, err))
	}
	return resp, nil
}

func isInvalidCredentials(resp *http.Response) bool {
	if resp.StatusCode != http.StatusBadRequest && resp.StatusCode != http.StatusUnauthorized {
		return false
	}
	var er errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&er); err != nil {
		return false
	}
	switch {
	case er.ErrorCode == "invalid_credentials", er.Error == "invalid_grant":
		return true
	case strings.EqualFold(er.Msg, "Invalid login credentials"),
		strings.EqualFold(er.ErrorDescription, "Invalid login credentials"):
		return true
	}
	return false
}

func drain(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 64<<10))
	utils.Close(rc)
}

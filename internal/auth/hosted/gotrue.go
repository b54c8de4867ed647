package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
)

// GoTrueProvider talks to a GoTrue-compatible REST API, such as the one
// exposed by a Supabase project under /auth/v1.
type GoTrueProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	now     func() time.Time
}

// NewGoTrueProvider builds a provider for the project at baseURL
// (e.g. https://abc.supabase.co). A nil client gets http.DefaultClient.
func NewGoTrueProvider(baseURL, apiKey string, client *http.Client) *GoTrueProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &GoTrueProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		now:     time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *ProviderUser `json:"user"`
}

func (t *tokenResponse) session(now time.Time) *ProviderSession {
	s := &ProviderSession{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		User:         t.User,
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0).UTC()
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
	}
	return s
}

// signupResponse covers both shapes GoTrue returns: a full token response
// when the project auto-confirms, or the bare user object otherwise.
type signupResponse struct {
	tokenResponse
	ProviderUser
}

// errorResponse covers the error bodies of current and older GoTrue
// releases.
type errorResponse struct {
	ErrorCode        string `json:"error_code"`
	Error            string `json:"error"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
}

func (p *GoTrueProvider) SignUp(ctx context.Context, email, password string, meta UserMetadata) (*ProviderUser, *ProviderSession, error) {
	body := map[string]any{"email": email, "password": password, "data": meta}

	var resp signupResponse
	if err := p.do(ctx, http.MethodPost, "/auth/v1/signup", nil, "", body, &resp); err != nil {
		return nil, nil, err
	}

	if resp.AccessToken != "" {
		s := resp.session(p.now())
		return s.User, s, nil
	}
	user := resp.ProviderUser
	return &user, nil, nil
}

func (p *GoTrueProvider) SignInWithPassword(ctx context.Context, email, password string) (*ProviderSession, error) {
	return p.token(ctx, "password", map[string]string{"email": email, "password": password})
}

func (p *GoTrueProvider) Refresh(ctx context.Context, refreshToken string) (*ProviderSession, error) {
	return p.token(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

func (p *GoTrueProvider) token(ctx context.Context, grant string, body any) (*ProviderSession, error) {
	var resp tokenResponse
	q := url.Values{"grant_type": {grant}}
	if err := p.do(ctx, http.MethodPost, "/auth/v1/token", q, "", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, auth.Unavailable("token "+grant, errors.New("response carries no access token"))
	}
	return resp.session(p.now()), nil
}

func (p *GoTrueProvider) SignOut(ctx context.Context, accessToken string) error {
	return p.do(ctx, http.MethodPost, "/auth/v1/logout", nil, accessToken, nil, nil)
}

func (p *GoTrueProvider) GetUser(ctx context.Context, accessToken string) (*ProviderUser, error) {
	var u ProviderUser
	if err := p.do(ctx, http.MethodGet, "/auth/v1/user", nil, accessToken, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *GoTrueProvider) do(ctx context.Context, method, path string, query url.Values, bearer string, in, out any) error {
	endpoint := p.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("apikey", p.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer == "" {
		bearer = p.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := p.client.Do(req)
	if err != nil {
		return auth.Unavailable(method+" "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return auth.Unavailable("decode "+path+" response", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	pe := &ProviderError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil {
		pe.Code = er.ErrorCode
		if pe.Code == "" {
			pe.Code = er.Error
		}
		for _, m := range []string{er.Msg, er.Message, er.ErrorDescription} {
			if m != "" {
				pe.Message = m
				break
			}
		}
	}
	if pe.Message == "" {
		pe.Message = strings.TrimSpace(string(raw))
	}
	if pe.Message == "" {
		pe.Message = http.StatusText(resp.StatusCode)
	}
	return pe
}

var _ Provider = (*GoTrueProvider)(nil)

package calendar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// StoredToken is the on-disk token file. It carries the client credentials
// so a refresh needs nothing else.
type StoredToken struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	TokenURI     string    `json:"token_uri"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Scopes       []string  `json:"scopes"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// NewStoredToken captures tok together with the client that obtained it.
func NewStoredToken(cfg *oauth2.Config, tok *oauth2.Token) *StoredToken {
	tokenURI := cfg.Endpoint.TokenURL
	if tokenURI == "" {
		tokenURI = google.Endpoint.TokenURL
	}
	return &StoredToken{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     tokenURI,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
		Expiry:       tok.Expiry,
	}
}

// OAuth2 splits the stored token into a client config and a token.
func (s *StoredToken) OAuth2() (*oauth2.Config, *oauth2.Token) {
	tokenURI := s.TokenURI
	if tokenURI == "" {
		tokenURI = google.Endpoint.TokenURL
	}
	cfg := &oauth2.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		Scopes:       s.Scopes,
		Endpoint:     oauth2.Endpoint{AuthURL: google.Endpoint.AuthURL, TokenURL: tokenURI},
	}
	tok := &oauth2.Token{
		AccessToken:  s.Token,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       s.Expiry,
	}
	return cfg, tok
}

func LoadToken(path string) (*StoredToken, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var st StoredToken
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	if st.Token == "" && st.RefreshToken == "" {
		return nil, fmt.Errorf("invalid token file %s: no token", path)
	}
	return &st, nil
}

// SaveToken writes st to path with owner-only permissions, replacing any
// previous file atomically.
func SaveToken(path string, st *StoredToken) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// persistingTokenSource saves the token file whenever the access token changes.
type persistingTokenSource struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	path   string
	stored StoredToken
	save   func(string, *StoredToken) error
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token (re-run calendar-auth): %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.stored.Token {
		p.stored.Token = tok.AccessToken
		p.stored.Expiry = tok.Expiry
		if tok.RefreshToken != "" {
			p.stored.RefreshToken = tok.RefreshToken
		}
		if err := p.save(p.path, &p.stored); err != nil {
			return nil, fmt.Errorf("persist refreshed token: %w", err)
		}
	}
	return tok, nil
}

package photos

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// Scopes required for library read/write and album sharing.
var Scopes = []string{
	"https://www.googleapis.com/auth/photoslibrary",
	"https://www.googleapis.com/auth/photoslibrary.sharing",
}

var endpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

type credentialsFile struct {
	Installed struct {
		ClientID     string   `json:"client_id"`
		ClientSecret string   `json:"client_secret"`
		RedirectURIs []string `json:"redirect_uris"`
	} `json:"installed"`
}

// CredentialsPath returns the OAuth client credentials file location.
func CredentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "credentials.json")
}

// TokenPath returns the saved token file location.
func TokenPath(dataDir string) string {
	return filepath.Join(dataDir, "token.json")
}

// OAuthConfig loads the OAuth client configuration from credentials.json.
func OAuthConfig(dataDir string) (*oauth2.Config, error) {
	data, err := os.ReadFile(CredentialsPath(dataDir))
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var cf credentialsFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if cf.Installed.ClientID == "" {
		return nil, fmt.Errorf("credentials file has no installed client")
	}

	redirect := "urn:ietf:wg:oauth:2.0:oob"
	if len(cf.Installed.RedirectURIs) > 0 {
		redirect = cf.Installed.RedirectURIs[0]
	}

	return &oauth2.Config{
		ClientID:     cf.Installed.ClientID,
		ClientSecret: cf.Installed.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  redirect,
		Scopes:       Scopes,
	}, nil
}

// LoadToken reads a saved OAuth token.
func LoadToken(dataDir string) (*oauth2.Token, error) {
	data, err := os.ReadFile(TokenPath(dataDir))
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &tok, nil
}

// SaveToken writes the OAuth token with owner-only permissions.
func SaveToken(dataDir string, tok *oauth2.Token) error {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(TokenPath(dataDir), data, 0o600)
}

// DeleteToken removes the saved token file.
func DeleteToken(dataDir string) error {
	err := os.Remove(TokenPath(dataDir))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// savingSource persists refreshed tokens back to the token file so the
// next invocation does not redo the refresh.
type savingSource struct {
	src     oauth2.TokenSource
	dataDir string

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := SaveToken(s.dataDir, tok); err == nil {
			s.last = tok.AccessToken
		}
	}
	return tok, nil
}

// TokenSource returns an auto-refreshing token source backed by the saved
// token file. The caller must have completed Login first.
func TokenSource(ctx context.Context, dataDir string) (oauth2.TokenSource, error) {
	cfg, err := OAuthConfig(dataDir)
	if err != nil {
		return nil, err
	}

	tok, err := LoadToken(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no saved token, run 'photosync login' first")
		}
		return nil, err
	}

	return &savingSource{
		src:     cfg.TokenSource(ctx, tok),
		dataDir: dataDir,
		last:    tok.AccessToken,
	}, nil
}

// Login runs the manual auth-code flow: the caller shows authURL to the
// user and readCode returns the pasted authorization code.
func Login(ctx context.Context, dataDir string, readCode func(authURL string) (string, error)) error {
	cfg, err := OAuthConfig(dataDir)
	if err != nil {
		return err
	}

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	code, err := readCode(authURL)
	if err != nil {
		return err
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange auth code: %w", err)
	}
	return SaveToken(dataDir, tok)
}

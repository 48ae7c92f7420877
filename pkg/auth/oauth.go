package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/harrisonrobin/taskline/pkg/config"
	"github.com/harrisonrobin/taskline/pkg/logging"
)

// AuthError is returned when no usable credential can be produced.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ErrNoCodeSource is wrapped in an AuthError when no token is stored and the
// provider was built without a way to ask for an authorization code.
var ErrNoCodeSource = errors.New("no stored token and no interactive code source")

// ClickUpOAuthConfig builds the oauth2 configuration for the ClickUp token endpoint.
// ClickUp expects the client credentials as form parameters.
func ClickUpOAuthConfig(cfg config.ClickUpConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   strings.TrimRight(cfg.AuthURL, "/"),
			TokenURL:  strings.TrimRight(cfg.BaseURL, "/") + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Provider hands out the ClickUp access token. The first call may block on
// the code source; the token is then persisted and reused.
type Provider struct {
	conf      *oauth2.Config
	tokenFile string
	codes     CodeSource
	log       zerolog.Logger

	mu  sync.Mutex
	tok *oauth2.Token
}

// NewProvider creates a token provider. codes may be nil for non-interactive use.
func NewProvider(conf *oauth2.Config, tokenFile string, codes CodeSource) *Provider {
	return &Provider{
		conf:      conf,
		tokenFile: tokenFile,
		codes:     codes,
		log:       logging.Component("auth"),
	}
}

// Token returns the access token, exchanging or refreshing it when needed.
func (p *Provider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tok == nil {
		tok, err := tokenFromFile(p.tokenFile)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return "", &AuthError{Op: "read token", Err: err}
			}
			p.log.Info().Str("token_file", p.tokenFile).Msg("no stored token, starting authorization")
			tok, err = p.authorize(ctx)
			if err != nil {
				return "", err
			}
		}
		p.tok = tok
	}

	if !p.tok.Valid() {
		if p.tok.RefreshToken == "" {
			reason := "token expired and no refresh token is stored"
			if p.tok.AccessToken == "" {
				reason = "stored token has no access_token"
			}
			return "", &AuthError{Op: "read token", Err: errors.New(reason)}
		}
		fresh, err := p.conf.TokenSource(ctx, p.tok).Token()
		if err != nil {
			return "", &AuthError{Op: "refresh token", Err: err}
		}
		p.log.Info().Msg("token refreshed")
		if err := saveToken(p.tokenFile, fresh); err != nil {
			p.log.Warn().Err(err).Msg("could not persist refreshed token")
		}
		p.tok = fresh
	}
	return p.tok.AccessToken, nil
}

// Reset discards the stored token so the next Token call authorizes again.
func (p *Provider) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tok = nil
	if err := os.Remove(p.tokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete token file '%s': %w", p.tokenFile, err)
	}
	return nil
}

func (p *Provider) authorize(ctx context.Context) (*oauth2.Token, error) {
	tok, err := exchange(ctx, p.conf, p.codes)
	if err != nil {
		return nil, err
	}
	if err := saveToken(p.tokenFile, tok); err != nil {
		return nil, &AuthError{Op: "save token", Err: err}
	}
	p.log.Info().Str("token_file", p.tokenFile).Msg("token saved")
	return tok, nil
}

// exchange runs the authorization-code flow through codes.
func exchange(ctx context.Context, conf *oauth2.Config, codes CodeSource) (*oauth2.Token, error) {
	if codes == nil {
		return nil, &AuthError{Op: "authorize", Err: ErrNoCodeSource}
	}
	if conf.ClientID == "" || conf.ClientSecret == "" {
		return nil, &AuthError{Op: "authorize", Err: errors.New("client id and client secret must be configured")}
	}

	state := uuid.NewString()
	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
	code, err := codes.Code(ctx, authURL, state)
	if err != nil {
		return nil, &AuthError{Op: "authorization code", Err: err}
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, &AuthError{Op: "exchange code", Err: err}
	}
	return tok, nil
}

// tokenFromFile reads an oauth2.Token from a JSON file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", file, err)
	}
	return tok, nil
}

// saveToken saves an oauth2.Token to a JSON file readable only by the owner.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

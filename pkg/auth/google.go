package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleConfig creates an oauth2.Config from a client secrets file. Localhost
// and out-of-band redirect URLs are pinned to the local callback port.
func GoogleConfig(clientSecretsFile string, scopes []string) (*oauth2.Config, error) {
	b, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, &AuthError{Op: "read client secrets", Err: err}
	}

	conf, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, &AuthError{Op: "parse client secrets", Err: err}
	}

	if conf.RedirectURL == "urn:ietf:wg:oauth:2.0:oob" || conf.RedirectURL == "" {
		conf.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)
		return conf, nil
	}
	parsed, err := url.Parse(conf.RedirectURL)
	if err == nil && (parsed.Hostname() == "localhost" || parsed.Hostname() == "127.0.0.1") {
		parsed.Host = fmt.Sprintf("%s:%s", parsed.Hostname(), LocalhostAuthPort)
		conf.RedirectURL = parsed.String()
	}
	return conf, nil
}

// GoogleClient returns an *http.Client authorised for scopes. A stored token is
// reused and refreshed transparently; otherwise codes is asked for a code.
func GoogleClient(ctx context.Context, clientSecretsFile, tokenFile string, scopes []string, codes CodeSource) (*http.Client, error) {
	conf, err := GoogleConfig(clientSecretsFile, scopes)
	if err != nil {
		return nil, err
	}

	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, &AuthError{Op: "read token", Err: err}
		}
		tok, err = exchange(ctx, conf, codes)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, &AuthError{Op: "save token", Err: err}
		}
	}

	src := conf.TokenSource(ctx, tok)
	current, err := src.Token()
	if err != nil {
		return nil, &AuthError{Op: "refresh token", Err: err}
	}
	if current.AccessToken != tok.AccessToken || current.RefreshToken != tok.RefreshToken {
		if err := saveToken(tokenFile, current); err != nil {
			return nil, &AuthError{Op: "save token", Err: err}
		}
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(current, src)), nil
}

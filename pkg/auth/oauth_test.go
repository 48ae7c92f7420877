package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/harrisonrobin/taskline/pkg/config"
)

type countingCodes struct {
	code  string
	calls int
}

func (c *countingCodes) Code(context.Context, string, string) (string, error) {
	c.calls++
	return c.code, nil
}

func newTokenServer(t *testing.T, exchanges *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		atomic.AddInt32(exchanges, 1)
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			assert.Equal(t, "the-code", r.PostForm.Get("code"))
			assert.Equal(t, "client", r.PostForm.Get("client_id"))
			assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
			w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer"}`))
		case "refresh_token":
			w.Write([]byte(`{"access_token":"refreshed","token_type":"Bearer","refresh_token":"r2","expires_in":3600}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
}

func testOAuthConfig(baseURL string) *oauth2.Config {
	return ClickUpOAuthConfig(config.ClickUpConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		BaseURL:      baseURL,
		AuthURL:      "https://app.example.com/api",
	})
}

func TestProviderExchangesOnceAndPersists(t *testing.T) {
	var exchanges int32
	srv := newTokenServer(t, &exchanges)
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "nested", "token.json")
	codes := &countingCodes{code: "the-code"}
	p := NewProvider(testOAuthConfig(srv.URL), tokenFile, codes)

	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", tok)

	tok, err = p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", tok)
	assert.Equal(t, 1, codes.calls)
	assert.Equal(t, int32(1), atomic.LoadInt32(&exchanges))

	info, err := os.Stat(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A new provider reads the persisted token without prompting.
	other := &countingCodes{code: "unused"}
	tok, err = NewProvider(testOAuthConfig(srv.URL), tokenFile, other).Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", tok)
	assert.Zero(t, other.calls)
}

func TestProviderWithoutCodeSource(t *testing.T) {
	p := NewProvider(testOAuthConfig("http://127.0.0.1:1"), filepath.Join(t.TempDir(), "token.json"), nil)
	_, err := p.Token(context.Background())

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.ErrorIs(t, err, ErrNoCodeSource)
}

func TestProviderRefreshesExpiredToken(t *testing.T) {
	var exchanges int32
	srv := newTokenServer(t, &exchanges)
	defer srv.Close()

	tokenFile := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, saveToken(tokenFile, &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "r1",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	p := NewProvider(testOAuthConfig(srv.URL), tokenFile, nil)
	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed", tok)

	stored, err := tokenFromFile(tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "refreshed", stored.AccessToken)
	assert.Equal(t, "r2", stored.RefreshToken)
}

func TestProviderReadsLegacyTokenFile(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "clickup_tokens.json")
	raw, _ := json.Marshal(map[string]any{"access_token": "12345_abc", "token_type": "Bearer"})
	require.NoError(t, os.WriteFile(tokenFile, raw, 0600))

	tok, err := NewProvider(testOAuthConfig("http://127.0.0.1:1"), tokenFile, nil).Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12345_abc", tok)
}

func TestProviderReset(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, saveToken(tokenFile, &oauth2.Token{AccessToken: "x"}))

	p := NewProvider(testOAuthConfig("http://127.0.0.1:1"), tokenFile, nil)
	require.NoError(t, p.Reset())
	_, err := os.Stat(tokenFile)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	require.NoError(t, p.Reset())
}

func TestPromptCode(t *testing.T) {
	var out strings.Builder
	code, err := PromptCode{In: strings.NewReader("  abc123 \n"), Out: &out}.Code(context.Background(), "https://auth", "s")
	require.NoError(t, err)
	assert.Equal(t, "abc123", code)
	assert.Contains(t, out.String(), "https://auth")

	_, err = PromptCode{In: strings.NewReader("\n"), Out: &out}.Code(context.Background(), "https://auth", "s")
	require.Error(t, err)
}

func TestCallbackCode(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()

	go func() {
		for i := 0; i < 50; i++ {
			resp, err := http.Get("http://" + addr + "/oauth2callback?state=st&code=" + url.QueryEscape("c-1"))
			if err == nil {
				resp.Body.Close()
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()

	code, err := CallbackCode{Listener: listener, Timeout: 5 * time.Second}.Code(context.Background(), "https://auth", "st")
	require.NoError(t, err)
	assert.Equal(t, "c-1", code)
}

package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// LocalhostAuthPort is the port the local redirect listener binds when no
// listener is supplied.
const LocalhostAuthPort = "6789"

// CodeSource obtains an OAuth authorization code for the given authorization URL.
type CodeSource interface {
	Code(ctx context.Context, authURL, state string) (string, error)
}

// PromptCode asks the user to open the authorization URL and paste the code.
type PromptCode struct {
	In  io.Reader
	Out io.Writer
}

func (p PromptCode) Code(_ context.Context, authURL, _ string) (string, error) {
	fmt.Fprintf(p.Out, "Open the following URL in your browser to authorize taskline:\n%s\n", authURL)
	fmt.Fprint(p.Out, "Enter the OAuth code: ")

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", errors.New("empty authorization code")
	}
	return code, nil
}

// CallbackCode captures the code from the OAuth redirect with a local HTTP server.
type CallbackCode struct {
	// Listener is used when set; otherwise the source listens on LocalhostAuthPort.
	Listener net.Listener
	Out      io.Writer
	Timeout  time.Duration
}

func (c CallbackCode) Code(ctx context.Context, authURL, state string) (string, error) {
	listener := c.Listener
	if listener == nil {
		var err error
		listener, err = net.Listen("tcp", "localhost:"+LocalhostAuthPort)
		if err != nil {
			return "", fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
		}
	}
	defer listener.Close()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("state"); got != "" && got != state {
				http.Error(w, "State mismatch", http.StatusBadRequest)
				sendErr(errCh, errors.New("state mismatch in redirect URL"))
				return
			}
			code := q.Get("code")
			if code == "" {
				http.Error(w, "Authorization code not found", http.StatusBadRequest)
				sendErr(errCh, errors.New("authorization code not found in redirect URL"))
				return
			}
			fmt.Fprintf(w, "Authentication successful! You can close this window.")
			select {
			case codeCh <- code:
			default:
			}
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(errCh, fmt.Errorf("HTTP server error: %w", err))
		}
	}()
	defer server.Shutdown(context.Background())

	if c.Out != nil {
		fmt.Fprintf(c.Out, "Open the following URL in your browser to authorize taskline:\n%s\n", authURL)
	}

	select {
	case code := <-codeCh:
		return code, nil
	case err := <-errCh:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(timeout):
		return "", errors.New("authorization timed out, please try again")
	}
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

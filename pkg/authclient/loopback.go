package authclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// LoopbackInteractor completes the interactive step on the local machine: it prints the
// authorize URL (and calls Open when set) and waits for the browser to hit RedirectURL.
type LoopbackInteractor struct {
	RedirectURL string
	Open        func(authURL string) error
	Out         io.Writer
}

type callbackResult struct {
	code string
	err  error
}

func (l *LoopbackInteractor) Authorize(ctx context.Context, authURL, state string) (string, error) {
	redirect, err := url.Parse(l.RedirectURL)
	if err != nil {
		return "", fmt.Errorf("redirect url: %w", err)
	}
	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return "", fmt.Errorf("listen %s: %w", redirect.Host, err)
	}

	results := make(chan callbackResult, 1)
	srv := &http.Server{Handler: callbackRouter(redirect.Path, state, results), ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	out := l.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "Open this URL to sign in:\n\n  %s\n\n", authURL)
	if l.Open != nil {
		if err := l.Open(authURL); err != nil {
			fmt.Fprintf(out, "could not open a browser: %v\n", err)
		}
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-results:
		return r.code, r.err
	}
}

func callbackRouter(path, state string, results chan<- callbackResult) http.Handler {
	if path == "" {
		path = "/"
	}
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET(path, func(c *gin.Context) {
		res := readCallback(c, state)
		select {
		case results <- res:
		default:
		}
		if res.err != nil {
			c.String(http.StatusBadRequest, "Sign-in failed: %v. You can close this window.", res.err)
			return
		}
		c.String(http.StatusOK, "Sign-in complete. You can close this window.")
	})
	return r
}

func readCallback(c *gin.Context, state string) callbackResult {
	if e := c.Query("error"); e != "" {
		return callbackResult{err: fmt.Errorf("%s: %s", e, c.Query("error_description"))}
	}
	if c.Query("state") != state {
		return callbackResult{err: errors.New("state mismatch")}
	}
	code := c.Query("code")
	if code == "" {
		return callbackResult{err: errors.New("missing authorization code")}
	}
	return callbackResult{code: code}
}

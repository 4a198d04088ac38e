package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/joseph-ayodele/deadline-extractor/internal/calendar"
	"github.com/joseph-ayodele/deadline-extractor/internal/common"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(2)
	}

	var (
		credentials = flag.String("credentials", cfg.Calendar.CredentialsFile, "Google OAuth client secrets file")
		tokenFile   = flag.String("token", cfg.Calendar.TokenFile, "where to write the token")
		redirect    = flag.String("redirect", cfg.Calendar.RedirectURL, "OAuth redirect URL")
		listen      = flag.Bool("listen", false, "serve the redirect URL locally and capture the code")
	)
	flag.Parse()

	oc, err := calendar.LoadOAuthConfig(*credentials, *redirect)
	if err != nil {
		logger.Error("failed to load Google credentials", "path", *credentials, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	state := uuid.NewString()
	fmt.Println("Open this URL in a browser and grant calendar access:")
	fmt.Println()
	fmt.Println(calendar.AuthCodeURL(oc, state))
	fmt.Println()

	var code string
	if *listen {
		code, err = awaitCallback(ctx, oc, state, logger)
	} else {
		code, err = readCode()
	}
	if err != nil {
		logger.Error("no authorization code", "error", err)
		os.Exit(1)
	}

	exCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := calendar.Exchange(exCtx, oc, code, *tokenFile); err != nil {
		logger.Error("token exchange failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Calendar connected", "token_file", *tokenFile)
}

func readCode() (string, error) {
	fmt.Print("Paste the authorization code: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", fmt.Errorf("empty code")
	}
	return code, nil
}

// awaitCallback serves the redirect URL's path until the provider calls it.
func awaitCallback(ctx context.Context, oc *oauth2.Config, state string, logger *slog.Logger) (string, error) {
	u, err := url.Parse(oc.RedirectURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("redirect URL %q cannot be served locally", oc.RedirectURL)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	codes := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state || q.Get("code") == "" {
			http.Error(w, "invalid callback", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Google Calendar connected. You can close this window.")
		select {
		case codes <- q.Get("code"):
		default:
		}
	})
	srv := &http.Server{Addr: u.Host, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("callback server", "error", err)
		}
	}()
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	logger.Info("waiting for OAuth callback", "addr", u.Host, "path", path)
	select {
	case code := <-codes:
		return code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Package httpserver exposes the JSON API and the embedded browser UI.
package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/ndreno/jellyfin-transmission-uploader/internal/config"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/domain"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/mediaserver"
)

// Session cookie keys
const (
	sessionName     = "uploader-session"
	sessionKeyToken = "token"
)

type Server struct {
	echo   *echo.Echo
	config *config.Config

	sessions      domain.SessionStore
	authenticator mediaserver.Authenticator
	submitter     domain.TorrentSubmitter

	cookies      *sessions.CookieStore
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, store domain.SessionStore, authenticator mediaserver.Authenticator, submitter domain.TorrentSubmitter, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:          e,
		config:        cfg,
		sessions:      store,
		authenticator: authenticator,
		submitter:     submitter,
		cookies:       setupCookieStore(cfg),
		healthChecks:  healthChecks,
		startTime:     time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func setupCookieStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// tokenFromRequest extracts the app session token from the Authorization
// header (API clients) or the signed cookie (browser UI).
func (s *Server) tokenFromRequest(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}

	cookie, err := s.cookies.Get(c.Request(), sessionName)
	if err != nil {
		return ""
	}
	token, _ := cookie.Values[sessionKeyToken].(string)
	return token
}

func (s *Server) saveTokenCookie(c echo.Context, token string) error {
	cookie, err := s.cookies.Get(c.Request(), sessionName)
	if err != nil {
		// A stale or tampered cookie is replaced, not fatal.
		cookie, err = s.cookies.New(c.Request(), sessionName)
		if err != nil {
			return fmt.Errorf("failed to create session cookie: %w", err)
		}
	}
	cookie.Values[sessionKeyToken] = token
	if err := cookie.Save(c.Request(), c.Response().Writer); err != nil {
		return fmt.Errorf("failed to save session cookie: %w", err)
	}
	return nil
}

func (s *Server) clearTokenCookie(c echo.Context) {
	cookie, err := s.cookies.Get(c.Request(), sessionName)
	if err != nil {
		slog.Warn("Failed to get session cookie during logout", "error", err)
		cookie, err = s.cookies.New(c.Request(), sessionName)
		if err != nil {
			return
		}
	}
	cookie.Options.MaxAge = -1
	if err := cookie.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Warn("Failed to clear session cookie", "error", err)
	}
}

package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ndreno/jellyfin-transmission-uploader/internal/domain"
	apperrors "github.com/ndreno/jellyfin-transmission-uploader/internal/errors"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/mediaserver"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/metrics"
)

const loginTimeout = 10 * time.Second

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return apperrors.ValidationError("invalid login request body")
	}
	// Validated before any outbound call is made.
	if req.Username == "" || req.Password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return apperrors.ValidationError("username and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), loginTimeout)
	defer cancel()

	result, err := s.authenticator.AuthenticateByName(ctx, req.Username, req.Password)
	if err != nil {
		var rejected *mediaserver.RejectedError
		if errors.As(err, &rejected) {
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
			return apperrors.UpstreamAuthError("invalid credentials", rejected.StatusCode, err).
				WithField("details", rejected.Body)
		}
		metrics.LoginsTotal.WithLabelValues("unavailable").Inc()
		return apperrors.UpstreamUnavailableError("media server unreachable", err)
	}

	sess, err := s.sessions.Create(ctx, result.UserID, result.UserName)
	if err != nil {
		return apperrors.InternalError("failed to create session", err)
	}

	if err := s.saveTokenCookie(c, sess.Token); err != nil {
		return apperrors.InternalError("failed to save session cookie", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	slog.Info("User logged in", "user_id", sess.UserID, "user_name", sess.UserName)

	if err := c.JSON(http.StatusOK, loginResponse{Token: sess.Token, Username: sess.UserName}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleStatus reports whether the caller holds a live session. Never errors.
func (s *Server) handleStatus(c echo.Context) error {
	response := map[string]any{"loggedIn": false}

	if token := s.tokenFromRequest(c); token != "" {
		sess, err := s.sessions.Lookup(c.Request().Context(), token)
		if err == nil {
			response["loggedIn"] = true
			response["username"] = sess.UserName
		} else if !errors.Is(err, domain.ErrSessionNotFound) {
			slog.Error("Failed to look up session for status", "error", err)
		}
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleLogout(c echo.Context) error {
	if token := s.tokenFromRequest(c); token != "" {
		if err := s.sessions.Destroy(c.Request().Context(), token); err != nil {
			slog.Error("Failed to destroy session", "error", err)
		}
	}
	s.clearTokenCookie(c)

	if err := c.JSON(http.StatusOK, map[string]string{"message": "logged out"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

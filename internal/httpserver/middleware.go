package httpserver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/ndreno/jellyfin-transmission-uploader/internal/domain"
	apperrors "github.com/ndreno/jellyfin-transmission-uploader/internal/errors"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/metrics"
)

// requireSession gates protected routes on a valid app session. Malformed,
// unknown and expired tokens all produce the same unauthenticated error.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := s.tokenFromRequest(c)
		if token == "" {
			return apperrors.UnauthenticatedError("authentication required")
		}

		sess, err := s.sessions.Lookup(c.Request().Context(), token)
		if errors.Is(err, domain.ErrSessionNotFound) {
			return apperrors.UnauthenticatedError("authentication required")
		}
		if err != nil {
			return apperrors.InternalError("failed to look up session", err)
		}

		c.Set("session", sess)
		return next(c)
	}
}

// ErrorHandlingMiddleware converts structured errors returned by handlers
// into JSON responses and records error metrics.
func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// Echo HTTPErrors (404s from routing, static files) keep their
			// status via Echo's default handler.
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			structuredErr := apperrors.AsStructuredError(err)
			metrics.HTTPErrorsTotal.WithLabelValues(string(structuredErr.Type)).Inc()
			logError(c, structuredErr)

			if err := c.JSON(structuredErr.HTTPStatus(), structuredErr.ToResponse()); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

func logError(c echo.Context, err *apperrors.Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	if sess, ok := c.Get("session").(*domain.Session); ok {
		attrs = append(attrs, "user_id", sess.UserID)
	}

	switch err.Type {
	case apperrors.TypeValidation, apperrors.TypeUnauthenticated, apperrors.TypeUpstreamAuth:
		slog.Info("Request rejected", attrs...)
	case apperrors.TypeDaemonRejected:
		slog.Warn("Daemon rejected torrent", attrs...)
	case apperrors.TypeConfig:
		slog.Error("Configuration error", attrs...)
	default:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Request failed", attrs...)
	}
}

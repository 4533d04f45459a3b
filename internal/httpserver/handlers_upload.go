package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/ndreno/jellyfin-transmission-uploader/internal/domain"
	apperrors "github.com/ndreno/jellyfin-transmission-uploader/internal/errors"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/metrics"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/scratch"
	"github.com/ndreno/jellyfin-transmission-uploader/internal/transmission"
)

func (s *Server) handleUpload(c echo.Context) error {
	// Fail fast before touching the upload when the daemon cannot be called.
	if !s.config.DaemonConfigured() {
		metrics.UploadsTotal.WithLabelValues("config_error").Inc()
		return apperrors.ConfigError("daemon credentials are not configured")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return apperrors.ValidationError("multipart field 'file' is required")
	}
	if fileHeader.Size > s.config.MaxUploadBytes {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return apperrors.ValidationError("file exceeds size limit").
			WithField("size", fileHeader.Size).
			WithField("limit", s.config.MaxUploadBytes)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return apperrors.InternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	path, size, err := scratch.Save(s.config.ScratchDir, src, s.config.MaxUploadBytes)
	if errors.Is(err, scratch.ErrTooLarge) {
		metrics.UploadsTotal.WithLabelValues("invalid").Inc()
		return apperrors.ValidationError("file exceeds size limit").
			WithField("limit", s.config.MaxUploadBytes)
	}
	if err != nil {
		return apperrors.InternalError("failed to store uploaded file", err)
	}
	// The scratch file must not outlive this request, whatever branch below runs.
	defer scratch.Release(path)

	metainfo, err := os.ReadFile(path)
	if err != nil {
		return apperrors.InternalError("failed to read uploaded file", err)
	}

	sess, _ := c.Get("session").(*domain.Session)
	slog.Info("Submitting torrent to daemon",
		"user_id", sess.UserID, "file", fileHeader.Filename, "size", size)

	result, err := s.submitter.SubmitTorrent(c.Request().Context(), metainfo)
	if err != nil {
		return s.mapSubmitError(err)
	}

	if result.Status == domain.AddRejected {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return apperrors.DaemonRejectedError(result.Result).
			WithField("details", rawPayload(result.Payload))
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	response := map[string]any{
		"result":  "success",
		"details": rawPayload(result.Payload),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) mapSubmitError(err error) error {
	switch {
	case errors.Is(err, transmission.ErrHandshakeFailed):
		metrics.UploadsTotal.WithLabelValues("handshake_failed").Inc()
		return apperrors.HandshakeError("daemon handshake failed", err)

	case errors.Is(err, transmission.ErrUnexpectedHandshakeSuccess):
		metrics.UploadsTotal.WithLabelValues("handshake_failed").Inc()
		return apperrors.HandshakeError("daemon skipped the session-token handshake", err)
	}

	var transportErr *transmission.TransportError
	if errors.As(err, &transportErr) {
		metrics.UploadsTotal.WithLabelValues("transport_failed").Inc()
		if transportErr.Timeout() {
			return apperrors.TimeoutError("daemon call timed out", err)
		}
		appErr := apperrors.TransportError("daemon unreachable or returned an error", err)
		if transportErr.StatusCode != 0 {
			appErr = appErr.WithField("daemon_status", transportErr.StatusCode)
		}
		return appErr
	}

	metrics.UploadsTotal.WithLabelValues("transport_failed").Inc()
	return apperrors.InternalError("torrent submission failed", err)
}

// rawPayload keeps the daemon's JSON intact in responses instead of
// re-encoding it as a base64 string.
func rawPayload(payload json.RawMessage) any {
	if len(payload) == 0 {
		return nil
	}
	return payload
}

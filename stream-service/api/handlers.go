package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const (
	sseDataPrefix    = "data: "
	clientBuffer     = 16
	defaultKeepAlive = 25 * time.Second
)

type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Register wires up stream endpoints on the given Echo instance.
func Register(e *echo.Echo, hub *Hub, auth Authenticator, keepAlive time.Duration, logger *log.Logger) {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	e.GET("/stream", streamUpdates(hub, auth, keepAlive, logger))
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
}

// streamUpdates serves the caller's board updates as server-sent events.
// Browsers cannot set headers on EventSource, so the token may come as a
// query parameter.
func streamUpdates(hub *Hub, auth Authenticator, keepAlive time.Duration, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if token := c.QueryParam("token"); authHeader == "" && token != "" {
			authHeader = "Bearer " + token
		}
		userID, err := auth.UserIDFromAuthHeader(authHeader)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error()})
		}
		flusher, ok := c.Response().Writer.(http.Flusher)
		if !ok {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "stream unsupported"})
		}
		resp := c.Response()
		resp.Header().Set(echo.HeaderContentType, "text/event-stream")
		resp.Header().Set(echo.HeaderCacheControl, "no-cache")
		resp.Header().Set(echo.HeaderConnection, "keep-alive")
		resp.Header().Set("X-Accel-Buffering", "no")
		resp.WriteHeader(http.StatusOK)
		flusher.Flush()

		ch := make(chan []byte, clientBuffer)
		hub.add(userID, ch)
		defer hub.remove(userID, ch)
		logger.WithField("user", userID).Debug("stream opened")

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()
		ctx := c.Request().Context()
		for {
			select {
			case <-ctx.Done():
				logger.WithField("user", userID).Debug("stream closed")
				return nil
			case <-ticker.C:
				if _, err := resp.Write([]byte(": keepalive\n\n")); err != nil {
					return nil
				}
				flusher.Flush()
			case data := <-ch:
				if err := writeEvent(resp, data); err != nil {
					logger.WithError(err).WithField("user", userID).Warn("stream write failed")
					return nil
				}
				flusher.Flush()
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, data []byte) error {
	if _, err := w.Write([]byte(sseDataPrefix)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write([]byte("\n\n"))
	return err
}

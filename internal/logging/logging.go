// Package logging configures the process logger and the per-request logging
// middleware.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devbook/devbook/internal/config"
)

const (
	requestIDKey  = "request_id"
	requestLogKey = "request_log"

	// RequestIDHeader is echoed back on every response.
	RequestIDHeader = "X-Request-ID"
)

// New builds the process logger from configuration.
func New(cfg config.Log) *logrus.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg config.Log, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.Out = out

	if cfg.Format == "text" {
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	} else {
		log.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}

// Middleware assigns a request id and logs each request once it completes.
func Middleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		entry := log.WithFields(logrus.Fields{
			"http.req.path":   c.Request.URL.Path,
			"http.req.method": c.Request.Method,
			"http.req.id":     requestID,
		})
		c.Set(requestLogKey, entry)

		start := time.Now()
		c.Next()

		entry = entry.WithFields(logrus.Fields{
			"http.resp.took_ms": time.Since(start).Milliseconds(),
			"http.resp.status":  c.Writer.Status(),
			"http.resp.bytes":   c.Writer.Size(),
		})
		if c.Writer.Status() >= 500 {
			entry.Warn("request complete")
			return
		}
		entry.Debug("request complete")
	}
}

// FromContext returns the request-scoped logger, or a bare entry on the
// standard logger when the middleware did not run.
func FromContext(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(requestLogKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// RequestID returns the id assigned by Middleware.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Close closes c and logs a failure instead of returning it, for deferred
// cleanup where there is nobody left to hand the error to.
func Close(log logrus.FieldLogger, c io.Closer, what string) {
	if err := c.Close(); err != nil {
		log.WithError(err).Errorf("error closing %s", what)
	}
}

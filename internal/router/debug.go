// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package router

import (
	"net/http"
	"time"

	"localdynamo/internal/awsresponses"
	"localdynamo/internal/util"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// statusRecorder remembers what was sent so it can be logged afterwards.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status != 0 {
		return
	}
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.WriteHeader(http.StatusOK)
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// DebugLoggerMiddleware logs one line per request. It must run inside
// SigV4Middleware so the namespace on the context is the resolved one.
// Server faults log at warn, everything else at info.
func DebugLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		next.ServeHTTP(rec, r)

		level := zapcore.InfoLevel
		if rec.status >= http.StatusInternalServerError {
			level = zapcore.WarnLevel
		}
		if ce := zap.L().Check(level, "request"); ce != nil {
			ce.Write(
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Int("size", rec.bytes),
				zap.Duration("duration", time.Since(start)),
				zap.String("operation", util.OperationFromTarget(r.Header.Get("X-Amz-Target"))),
				zap.String("namespace", util.NamespaceFromContext(r.Context())),
				zap.String("request_id", rec.Header().Get(awsresponses.RequestIDHeader)),
			)
		}
	})
}

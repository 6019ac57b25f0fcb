package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	ghandlers "github.com/gorilla/handlers"
	"go.uber.org/zap"
)

// RequestIDHeader заголовок с идентификатором запроса
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFromContext возвращает идентификатор запроса
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID присваивает запросу идентификатор (из заголовка или новый UUID)
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// AccessLog пишет журнал запросов в zap
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ghandlers.CustomLoggingHandler(io.Discard, next, func(_ io.Writer, p ghandlers.LogFormatterParams) {
			logger.Info("HTTP request",
				zap.String("method", p.Request.Method),
				zap.String("path", p.URL.Path),
				zap.Int("status", p.StatusCode),
				zap.Int("size", p.Size),
				zap.Duration("duration", time.Since(p.TimeStamp)),
				zap.String("request_id", RequestIDFromContext(p.Request.Context())),
			)
		})
	}
}

// recoveryLogger адаптирует zap к логгеру RecoveryHandler
type recoveryLogger struct {
	logger *zap.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("Recovered from panic", zap.String("panic", fmt.Sprint(v...)))
}

// Wrap оборачивает роутер: CORS, идентификатор запроса, журнал, восстановление после паники
func Wrap(router http.Handler, allowedOrigins []string, logger *zap.Logger) http.Handler {
	cors := ghandlers.CORS(
		ghandlers.AllowedOrigins(allowedOrigins),
		ghandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		ghandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		ghandlers.AllowCredentials(),
	)
	recovery := ghandlers.RecoveryHandler(ghandlers.RecoveryLogger(recoveryLogger{logger}))

	return cors(RequestID(AccessLog(logger)(recovery(router))))
}

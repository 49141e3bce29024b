package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/ebills/internal/auth"
)

// LoggingInterceptor logs one line per RPC with the procedure, caller,
// duration and result code. Client errors are logged at Warn and server
// errors at Error. Place it after RequireAuth so the caller is known.
func LoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			session, _ := auth.SessionFrom(ctx)
			attrs := []any{
				"procedure", req.Spec().Procedure,
				"protocol", req.Peer().Protocol,
				"user_id", session.UserID,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err == nil {
				logger.InfoContext(ctx, "RPC ok", attrs...)
				return resp, nil
			}

			code := connect.CodeOf(err)
			attrs = append(attrs, "code", code.String(), "error", err)
			logger.Log(ctx, levelFor(code), "RPC error", attrs...)
			return resp, err
		}
	}
}

// levelFor maps a result code to a log level: failures caused by the
// request are warnings, everything else is an error.
func levelFor(code connect.Code) slog.Level {
	switch code {
	case connect.CodeInvalidArgument,
		connect.CodeNotFound,
		connect.CodeAlreadyExists,
		connect.CodePermissionDenied,
		connect.CodeUnauthenticated,
		connect.CodeFailedPrecondition,
		connect.CodeAborted,
		connect.CodeCanceled:
		return slog.LevelWarn
	}
	return slog.LevelError
}

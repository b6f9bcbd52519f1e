package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/draftbid/internal/metrics"
)

// roomScoped is implemented by requests that target one room.
type roomScoped interface {
	GetRoomID() string
}

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// It logs the procedure name, room ID, request ID, duration, and any error
// codes/messages. Rejected commands log at warn, failures at error.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure
			var roomID string
			if rs, ok := req.Any().(roomScoped); ok {
				roomID = rs.GetRoomID()
			}

			resp, err := next(ctx, req)

			duration := time.Since(start).Milliseconds()
			if err != nil {
				var connectErr *connect.Error
				if asConnectError(err, &connectErr) && connectErr.Code() != connect.CodeInternal {
					slog.Warn("RPC rejected",
						"procedure", procedure,
						"code", connectErr.Code(),
						"error", connectErr.Message(),
						"room_id", roomID,
						"request_id", GetRequestID(ctx),
						"duration_ms", duration,
					)
				} else {
					slog.Error("RPC error",
						"procedure", procedure,
						"error", err,
						"room_id", roomID,
						"request_id", GetRequestID(ctx),
						"duration_ms", duration,
					)
				}
			} else {
				slog.Info("RPC ok",
					"procedure", procedure,
					"room_id", roomID,
					"request_id", GetRequestID(ctx),
					"duration_ms", duration,
				)
			}

			return resp, err
		}
	}
}

// MetricsInterceptor records the latency of every RPC by procedure and code.
func MetricsInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			m.RPCSeconds.WithLabelValues(req.Spec().Procedure, code).Observe(time.Since(start).Seconds())
			return resp, err
		}
	}
}

func asConnectError(err error, target **connect.Error) bool {
	return errors.As(err, target)
}

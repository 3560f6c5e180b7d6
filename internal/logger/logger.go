package logger

import (
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func Setup(dev bool) zerolog.Logger {
	var logger zerolog.Logger
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}

// Requests returns echo middleware which attaches the logger to the
// request context and emits one structured line per request.
func Requests(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()

			req := c.Request()
			ctx := logger.With().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("addr", c.RealIP()).
				Logger().WithContext(req.Context())

			c.SetRequest(req.WithContext(ctx))

			err := next(c)

			if err != nil {
				zerolog.Ctx(ctx).Error().
					Err(err).
					Dur("duration", time.Since(started)).
					Msg("http request")

				return err
			}

			zerolog.Ctx(ctx).Info().
				Int("status", c.Response().Status).
				Dur("duration", time.Since(started)).
				Msg("http request")

			return nil
		}
	}
}

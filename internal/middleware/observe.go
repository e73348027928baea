package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront/internal/metrics"
)

// RequestLogger writes one loggo line per request and records it in m.
// m may be nil.
func RequestLogger(m *metrics.Collector) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the error response so the status is final
				c.Error(err)
			}
			elapsed := time.Since(start)

			req := c.Request()
			res := c.Response()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(req.Method, route, res.Status, elapsed)

			id := res.Header().Get(echo.HeaderXRequestID)
			switch {
			case res.Status >= 500:
				logger.Errorf("%s %s %d %s id=%s err=%v", req.Method, req.URL.Path, res.Status, elapsed, id, err)
			default:
				logger.Infof("%s %s %d %s id=%s", req.Method, req.URL.Path, res.Status, elapsed, id)
			}
			return nil
		}
	}
}

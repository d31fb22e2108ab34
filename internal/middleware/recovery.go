package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/fundalink/fundalink-api/pkg/errors"
	"github.com/fundalink/fundalink-api/pkg/logger"
	"github.com/fundalink/fundalink-api/pkg/middleware/requestid"
	"github.com/fundalink/fundalink-api/pkg/response"
)

// Recovery turns panics into 500 responses and reports them, together with any handler
// error behind a 5xx response, to the error tracker.
func Recovery(log *zap.Logger, reporter logger.ErrorReporter) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			err, ok := recovered.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", recovered)
			}
			log.Error("panic recovered",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Value(c)),
				zap.ByteString("stack", debug.Stack()),
			)
			report(c, reporter, err)
			if !c.Writer.Written() {
				response.Error(c, appErrors.ErrInternal)
			}
			c.Abort()
		}()

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			if last := c.Errors.Last(); last != nil {
				report(c, reporter, last.Err)
			}
		}
	}
}

func report(c *gin.Context, reporter logger.ErrorReporter, err error) {
	if reporter == nil {
		return
	}
	extras := map[string]interface{}{"request_id": requestid.Value(c)}
	if principal, ok := CurrentPrincipal(c); ok {
		extras["principal_id"] = principal.ID
	}
	reporter.Report(c.Request, err, extras)
}

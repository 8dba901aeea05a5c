package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/edufly-cloud/edufly/internal/logger"
	"github.com/edufly-cloud/edufly/internal/stats"
	"github.com/edufly-cloud/edufly/internal/util"
	"github.com/gin-gonic/gin"
)

func getLoggerMiddleware(log logger.Logger, prefix string, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(correlationId, util.NewUuid())
		start := time.Now()
		c.Next()
		latency := time.Now().Sub(start).Milliseconds()

		stats.Incr("edufly.web.requests", []string{
			"status:" + strconv.Itoa(c.Writer.Status()),
			"path:" + c.FullPath(),
		}, 1)

		if !prod {
			log.Infof("%s | %d | %s | %s | %dms", prefix, c.Writer.Status(), c.Request.Method, c.FullPath(), latency)
		}

		if prod {
			log.Infow("request to api",
				correlationId, c.GetString(correlationId),
				"code", c.Writer.Status(),
				"method", c.Request.Method,
				"path", c.FullPath(),
				"latencyInMs", latency,
			)
		}
	}
}

func getAuthMiddleware(a authenticator, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := a.AuthenticateHttpRequest(c.Request)
		if err != nil {
			stats.Incr("edufly.web.get_auth_middleware.authentication_error", nil, 1)

			cid := c.GetString(correlationId)
			if _, ok := err.(authenticatedError); ok {
				logError(log, "request is not authenticated", prod, cid, err)
				c.AbortWithStatusJSON(http.StatusUnauthorized, &ErrorResponse{
					Type:     "/errors/unauthenticated",
					Title:    "request is not authenticated",
					Status:   http.StatusUnauthorized,
					Detail:   err.Error(),
					Instance: c.FullPath(),
				})
				return
			}

			logError(log, "error when authenticating http request", prod, cid, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, &ErrorResponse{
				Type:     "/errors/authentication",
				Title:    "authenticating http request errored out",
				Status:   http.StatusInternalServerError,
				Detail:   err.Error(),
				Instance: c.FullPath(),
			})
			return
		}

		c.Set(userId, uid)
		c.Next()
	}
}

type notFoundError interface {
	Error() string
	NotFound()
}

type validationError interface {
	Error() string
	Validation()
}

type authenticatedError interface {
	Error() string
	Authenticated()
}

type quotaError interface {
	Error() string
	QuotaExceeded()
}

type generationParseError interface {
	Error() string
	GenerationParse()
}

type upstreamError interface {
	Error() string
	Upstream()
}

// respondError maps the domain's typed errors onto http statuses and writes
// an ErrorResponse. title describes the operation that failed.
func respondError(c *gin.Context, log logger.Logger, prod bool, title string, err error) {
	cid := c.GetString(correlationId)
	path := c.FullPath()

	logError(log, title, prod, cid, err)

	status := http.StatusInternalServerError
	errType := "/errors/internal"

	switch err.(type) {
	case notFoundError:
		status = http.StatusNotFound
		errType = "/errors/not-found"
	case validationError:
		status = http.StatusBadRequest
		errType = "/errors/validation"
	case authenticatedError:
		status = http.StatusUnauthorized
		errType = "/errors/unauthorized"
	case quotaError:
		status = http.StatusForbidden
		errType = "/errors/quota-exceeded"
	case generationParseError:
		status = http.StatusUnprocessableEntity
		errType = "/errors/generation-parse"
	case upstreamError:
		status = http.StatusBadGateway
		errType = "/errors/upstream"
	}

	c.JSON(status, &ErrorResponse{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   err.Error(),
		Instance: path,
	})
}

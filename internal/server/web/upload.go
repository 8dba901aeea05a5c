package web

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/edufly-cloud/edufly/internal/file"
	"github.com/edufly-cloud/edufly/internal/logger"
	"github.com/edufly-cloud/edufly/internal/stats"
	"github.com/gin-gonic/gin"
)

func getRequestUploadHandler(fm FileManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_request_upload_handler.requests", nil, 1)

		start := time.Now()
		defer func() {
			dur := time.Now().Sub(start)
			stats.Timing("edufly.web.get_request_upload_handler.latency", dur, nil, 1)
		}()

		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respondError(c, log, prod, "error when reading upload request body", err)
			return
		}

		req := &file.UploadRequest{}
		if err := json.Unmarshal(data, req); err != nil {
			respondError(c, log, prod, "error when unmarshalling upload request body", err)
			return
		}

		grant, err := fm.RequestUpload(c.Request.Context(), c.GetString(userId), req)
		if err != nil {
			stats.Incr("edufly.web.get_request_upload_handler.request_upload_error", nil, 1)
			respondError(c, log, prod, "error when requesting upload", err)
			return
		}

		stats.Incr("edufly.web.get_request_upload_handler.success", nil, 1)
		c.JSON(http.StatusOK, grant)
	}
}

func getConfirmUploadHandler(fm FileManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_confirm_upload_handler.requests", nil, 1)

		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respondError(c, log, prod, "error when reading upload confirm request body", err)
			return
		}

		req := &file.ConfirmRequest{}
		if err := json.Unmarshal(data, req); err != nil {
			respondError(c, log, prod, "error when unmarshalling upload confirm request body", err)
			return
		}

		created, err := fm.ConfirmUpload(c.GetString(userId), req)
		if err != nil {
			stats.Incr("edufly.web.get_confirm_upload_handler.confirm_upload_error", nil, 1)
			respondError(c, log, prod, "error when confirming upload", err)
			return
		}

		stats.Incr("edufly.web.get_confirm_upload_handler.success", nil, 1)
		c.JSON(http.StatusOK, created)
	}
}

func getListFilesHandler(fm FileManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_list_files_handler.requests", nil, 1)

		listing, err := fm.ListFiles(c.GetString(userId), c.Query("type"), c.Query("sort"))
		if err != nil {
			stats.Incr("edufly.web.get_list_files_handler.list_files_error", nil, 1)
			respondError(c, log, prod, "error when listing files", err)
			return
		}

		c.JSON(http.StatusOK, listing)
	}
}

func getDeleteFileHandler(fm FileManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_delete_file_handler.requests", nil, 1)

		key := c.Query("key")
		if len(key) == 0 {
			c.JSON(http.StatusBadRequest, &ErrorResponse{
				Type:     "/errors/missing-query-key",
				Title:    "key is empty",
				Status:   http.StatusBadRequest,
				Detail:   "query param key is missing from the request url. it is required for deleting a file.",
				Instance: c.FullPath(),
			})
			return
		}

		if err := fm.DeleteFile(c.GetString(userId), key); err != nil {
			stats.Incr("edufly.web.get_delete_file_handler.delete_file_error", nil, 1)
			respondError(c, log, prod, "error when deleting file", err)
			return
		}

		stats.Incr("edufly.web.get_delete_file_handler.success", nil, 1)
		c.Status(http.StatusOK)
	}
}

func getGetSubscriptionHandler(sm SubscriptionManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_get_subscription_handler.requests", nil, 1)

		sub, err := sm.GetSubscription(c.GetString(userId))
		if err != nil {
			if _, ok := err.(notFoundError); ok {
				limits, err := sm.GetLimits(c.GetString(userId))
				if err != nil {
					respondError(c, log, prod, "error when resolving plan limits", err)
					return
				}

				c.JSON(http.StatusOK, gin.H{
					"subscription": nil,
					"limits":       limits,
				})
				return
			}

			stats.Incr("edufly.web.get_get_subscription_handler.get_subscription_error", nil, 1)
			respondError(c, log, prod, "error when getting subscription", err)
			return
		}

		limits, err := sm.GetLimits(c.GetString(userId))
		if err != nil {
			respondError(c, log, prod, "error when resolving plan limits", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"subscription": sub,
			"limits":       limits,
		})
	}
}

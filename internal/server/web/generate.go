package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/edufly-cloud/edufly/internal/logger"
	"github.com/edufly-cloud/edufly/internal/prompt"
	"github.com/edufly-cloud/edufly/internal/provider/gemini"
	"github.com/edufly-cloud/edufly/internal/recorder"
	"github.com/edufly-cloud/edufly/internal/stats"
	"github.com/edufly-cloud/edufly/internal/usage"
	"github.com/gin-gonic/gin"
)

// GenerateRequest either carries a fully assembled prompt or the raw
// material to assemble one from on the server. FilesBase64 holds inline pdf
// documents that are attached to the model call instead of being referenced
// by url.
type GenerateRequest struct {
	Prompt      string   `json:"prompt"`
	Files       []string `json:"files"`
	FilesBase64 []string `json:"filesBase64"`
	Videos      []string `json:"videos"`
	Context     string   `json:"context"`
}

func getGenerateHandler(client aiClient, tc tokenCounter, tv tokenValidator, um UsageManager, gc GenerationConfig, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_generate_handler.requests", nil, 1)

		start := time.Now()
		defer func() {
			dur := time.Now().Sub(start)
			stats.Timing("edufly.web.get_generate_handler.latency", dur, nil, 1)
		}()

		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respondError(c, log, prod, "error when reading generate request body", err)
			return
		}

		req := &GenerateRequest{}
		if err := json.Unmarshal(data, req); err != nil {
			respondError(c, log, prod, "error when unmarshalling generate request body", err)
			return
		}

		assembled := req.Prompt
		if len(assembled) == 0 {
			assembled = prompt.Assemble(prompt.CourseSystemPrompt, prompt.FileUrls(gc.CdnBaseUrl, req.Files), req.Videos, req.Context)
		}

		uid := c.GetString(userId)
		if err := tv.ValidateTokens(uid, tc.Count(assembled)); err != nil {
			stats.Incr("edufly.web.get_generate_handler.token_quota_exceeded", nil, 1)
			respondError(c, log, prod, "token quota check failed", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), gc.StreamTimeout)
		defer cancel()

		stream, err := client.Generate(ctx, assembled, req.FilesBase64)
		if err != nil {
			stats.Incr("edufly.web.get_generate_handler.upstream_error", nil, 1)
			respondError(c, log, prod, "error when establishing model stream", err)
			return
		}
		defer stream.Close()

		meter := recorder.NewMeter(um, uid, usage.TypeAiTokens, gc.IncrementThreshold, gc.TokensPerIncrement)
		defer func() {
			if err := meter.Flush(); err != nil {
				stats.Incr("edufly.web.get_generate_handler.flush_error", nil, 1)
				logError(log, "error when flushing usage meter", prod, c.GetString(correlationId), err)
			}
		}()

		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Cache-Control", "no-cache")
		c.Status(http.StatusOK)

		stats.Incr("edufly.web.get_generate_handler.streaming_requests", nil, 1)

		c.Stream(func(w io.Writer) bool {
			event, err := stream.Recv()
			if err != nil {
				if err == io.EOF {
					return false
				}

				stats.Incr("edufly.web.get_generate_handler.recv_error", nil, 1)
				logError(log, "error when receiving model stream event", prod, c.GetString(correlationId), err)

				// The status line is already committed, so the failure has
				// to travel in band for the client to tell truncation from
				// completion.
				payload, merr := json.Marshal(&ErrorResponse{
					Type:     "/errors/upstream",
					Title:    "model stream interrupted",
					Status:   http.StatusBadGateway,
					Detail:   err.Error(),
					Instance: c.FullPath(),
				})
				if merr != nil {
					return false
				}

				if _, err := w.Write(append([]byte("\n"), payload...)); err != nil {
					logError(log, "error when writing stream error payload", prod, c.GetString(correlationId), err)
				}

				return false
			}

			switch event.Type {
			case gemini.EventTypeTextDelta:
				if _, err := w.Write([]byte(event.Text)); err != nil {
					logError(log, "error when relaying text delta", prod, c.GetString(correlationId), err)
					return false
				}
			case gemini.EventTypeUsageSnapshot:
				if err := meter.Observe(event.Usage); err != nil {
					stats.Incr("edufly.web.get_generate_handler.observe_error", nil, 1)
					logError(log, "error when recording usage snapshot", prod, c.GetString(correlationId), err)
				}
			}

			return true
		})
	}
}

// TrackResponse mirrors the accounting client contract: the new counter
// value plus the applied increment.
type TrackResponse struct {
	Success bool         `json:"success"`
	Usage   *TrackedUsage `json:"usage"`
}

type TrackedUsage struct {
	UserId      string `json:"userId"`
	Type        string `json:"type"`
	Value       int64  `json:"value"`
	Incremented int64  `json:"incremented"`
}

func getTrackUsageHandler(um UsageManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_track_usage_handler.requests", nil, 1)

		start := time.Now()
		defer func() {
			dur := time.Now().Sub(start)
			stats.Timing("edufly.web.get_track_usage_handler.latency", dur, nil, 1)
		}()

		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respondError(c, log, prod, "error when reading track request body", err)
			return
		}

		req := &usage.IncrementRequest{}
		if err := json.Unmarshal(data, req); err != nil {
			respondError(c, log, prod, "error when unmarshalling track request body", err)
			return
		}

		if err := req.Validate(); err != nil {
			stats.Incr("edufly.web.get_track_usage_handler.validation_error", nil, 1)
			respondError(c, log, prod, "track request validation failed", err)
			return
		}

		u, err := um.IncrementUsage(req.UserId, req.Type, req.Increments)
		if err != nil {
			stats.Incr("edufly.web.get_track_usage_handler.increment_usage_error", nil, 1)
			respondError(c, log, prod, "error when incrementing usage", err)
			return
		}

		stats.Incr("edufly.web.get_track_usage_handler.success", nil, 1)
		c.JSON(http.StatusOK, &TrackResponse{
			Success: true,
			Usage: &TrackedUsage{
				UserId:      u.UserId,
				Type:        u.Type,
				Value:       u.Value,
				Incremented: req.Increments,
			},
		})
	}
}

package web

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/edufly-cloud/edufly/internal/course"
	"github.com/edufly-cloud/edufly/internal/logger"
	"github.com/edufly-cloud/edufly/internal/stats"
	"github.com/gin-gonic/gin"
)

// CreateCourseRequest accepts either an explicit course structure or the raw
// accumulated model output. When Raw is present the structure is extracted
// from it server side; a parse failure rejects the request and no course is
// created.
type CreateCourseRequest struct {
	Raw string `json:"raw"`

	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Chapters    []*course.ChapterInput `json:"chapters"`
	Files       []string               `json:"files"`
}

func getCreateCourseHandler(cm CourseManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_create_course_handler.requests", nil, 1)

		start := time.Now()
		defer func() {
			dur := time.Now().Sub(start)
			stats.Timing("edufly.web.get_create_course_handler.latency", dur, nil, 1)
		}()

		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respondError(c, log, prod, "error when reading course create request body", err)
			return
		}

		req := &CreateCourseRequest{}
		if err := json.Unmarshal(data, req); err != nil {
			respondError(c, log, prod, "error when unmarshalling course create request body", err)
			return
		}

		createReq := &course.CreateRequest{
			Title:       req.Title,
			Description: req.Description,
			Chapters:    req.Chapters,
			Files:       req.Files,
		}

		if len(req.Raw) > 0 {
			structure, err := course.ExtractStructure(req.Raw)
			if err != nil {
				stats.Incr("edufly.web.get_create_course_handler.parse_error", nil, 1)
				respondError(c, log, prod, "error when extracting course structure", err)
				return
			}

			createReq.Title = structure.Title
			createReq.Description = structure.Description
			createReq.Chapters = make([]*course.ChapterInput, 0, len(structure.Chapters))
			for _, ch := range structure.Chapters {
				createReq.Chapters = append(createReq.Chapters, &course.ChapterInput{
					Title:    ch.Title,
					Duration: ch.Duration,
					Content:  ch.Content,
				})
			}
		}

		created, err := cm.CreateCourse(c.GetString(userId), createReq)
		if err != nil {
			stats.Incr("edufly.web.get_create_course_handler.create_course_error", nil, 1)
			respondError(c, log, prod, "error when creating course", err)
			return
		}

		stats.Incr("edufly.web.get_create_course_handler.success", nil, 1)
		c.JSON(http.StatusOK, created)
	}
}

func getGetCourseHandler(cm CourseManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_get_course_handler.requests", nil, 1)

		view, err := cm.GetCourseView(c.GetString(userId), c.Param("id"))
		if err != nil {
			stats.Incr("edufly.web.get_get_course_handler.get_course_error", nil, 1)
			respondError(c, log, prod, "error when getting course", err)
			return
		}

		stats.Incr("edufly.web.get_get_course_handler.success", nil, 1)
		c.JSON(http.StatusOK, view)
	}
}

func getListCoursesHandler(cm CourseManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_list_courses_handler.requests", nil, 1)

		summaries, err := cm.ListCourses(c.GetString(userId))
		if err != nil {
			stats.Incr("edufly.web.get_list_courses_handler.list_courses_error", nil, 1)
			respondError(c, log, prod, "error when listing courses", err)
			return
		}

		c.JSON(http.StatusOK, summaries)
	}
}

func getListSharedCoursesHandler(cm CourseManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_list_shared_courses_handler.requests", nil, 1)

		summaries, err := cm.ListSharedCourses(c.GetString(userId))
		if err != nil {
			stats.Incr("edufly.web.get_list_shared_courses_handler.list_shared_courses_error", nil, 1)
			respondError(c, log, prod, "error when listing shared courses", err)
			return
		}

		c.JSON(http.StatusOK, summaries)
	}
}

func getSaveCourseHandler(cm CourseManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_save_course_handler.requests", nil, 1)

		start := time.Now()
		defer func() {
			dur := time.Now().Sub(start)
			stats.Timing("edufly.web.get_save_course_handler.latency", dur, nil, 1)
		}()

		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respondError(c, log, prod, "error when reading course save request body", err)
			return
		}

		req := &course.UpdateRequest{}
		if err := json.Unmarshal(data, req); err != nil {
			respondError(c, log, prod, "error when unmarshalling course save request body", err)
			return
		}

		view, err := cm.Reconcile(c.GetString(userId), c.Param("id"), req)
		if err != nil {
			stats.Incr("edufly.web.get_save_course_handler.reconcile_error", nil, 1)
			respondError(c, log, prod, "error when saving course", err)
			return
		}

		stats.Incr("edufly.web.get_save_course_handler.success", nil, 1)
		c.JSON(http.StatusOK, view)
	}
}

func getDeleteCourseHandler(cm CourseManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_delete_course_handler.requests", nil, 1)

		if err := cm.DeleteCourse(c.GetString(userId), c.Param("id")); err != nil {
			stats.Incr("edufly.web.get_delete_course_handler.delete_course_error", nil, 1)
			respondError(c, log, prod, "error when deleting course", err)
			return
		}

		stats.Incr("edufly.web.get_delete_course_handler.success", nil, 1)
		c.Status(http.StatusOK)
	}
}

type ShareCourseRequest struct {
	UserId string `json:"userId"`
}

func getShareCourseHandler(cm CourseManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_share_course_handler.requests", nil, 1)

		req := &ShareCourseRequest{}
		if err := c.ShouldBindJSON(req); err != nil {
			respondError(c, log, prod, "error when unmarshalling course share request body", err)
			return
		}

		if err := cm.ShareCourse(c.GetString(userId), c.Param("id"), req.UserId); err != nil {
			stats.Incr("edufly.web.get_share_course_handler.share_course_error", nil, 1)
			respondError(c, log, prod, "error when sharing course", err)
			return
		}

		stats.Incr("edufly.web.get_share_course_handler.success", nil, 1)
		c.Status(http.StatusOK)
	}
}

func getGetCompletionsHandler(cm CourseManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_get_completions_handler.requests", nil, 1)

		completions, err := cm.GetCompletions(c.GetString(userId), c.Param("id"))
		if err != nil {
			stats.Incr("edufly.web.get_get_completions_handler.get_completions_error", nil, 1)
			respondError(c, log, prod, "error when getting chapter completions", err)
			return
		}

		c.JSON(http.StatusOK, completions)
	}
}

type SetCompletionRequest struct {
	ChapterId string `json:"chapterId"`
	Completed bool   `json:"completed"`
}

func getSetCompletionHandler(cm CourseManager, log logger.Logger, prod bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats.Incr("edufly.web.get_set_completion_handler.requests", nil, 1)

		req := &SetCompletionRequest{}
		if err := c.ShouldBindJSON(req); err != nil {
			respondError(c, log, prod, "error when unmarshalling completion request body", err)
			return
		}

		if err := cm.SetCompletion(c.GetString(userId), c.Param("id"), req.ChapterId, req.Completed); err != nil {
			stats.Incr("edufly.web.get_set_completion_handler.set_completion_error", nil, 1)
			respondError(c, log, prod, "error when setting chapter completion", err)
			return
		}

		stats.Incr("edufly.web.get_set_completion_handler.success", nil, 1)
		c.Status(http.StatusOK)
	}
}

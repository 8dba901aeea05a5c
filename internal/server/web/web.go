package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/edufly-cloud/edufly/internal/course"
	"github.com/edufly-cloud/edufly/internal/file"
	"github.com/edufly-cloud/edufly/internal/logger"
	"github.com/edufly-cloud/edufly/internal/provider/gemini"
	"github.com/edufly-cloud/edufly/internal/subscription"
	"github.com/edufly-cloud/edufly/internal/usage"
	"github.com/gin-gonic/gin"
)

const (
	correlationId string = "correlationId"
	userId        string = "userId"
)

type ErrorResponse struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance"`
}

type CourseManager interface {
	CreateCourse(authorId string, req *course.CreateRequest) (*course.Course, error)
	GetCourseView(requesterId string, courseId string) (*course.View, error)
	ListCourses(authorId string) ([]*course.Summary, error)
	ListSharedCourses(userId string) ([]*course.Summary, error)
	Reconcile(requesterId string, courseId string, req *course.UpdateRequest) (*course.View, error)
	DeleteCourse(requesterId string, courseId string) error
	ShareCourse(requesterId string, courseId string, targetUserId string) error
	GetCompletions(requesterId string, courseId string) ([]*course.Completion, error)
	SetCompletion(requesterId string, courseId string, chapterId string, completed bool) error
}

type UsageManager interface {
	IncrementUsage(userId string, usageType string, delta int64) (*usage.Usage, error)
	GetUsage(userId string, usageType string) (*usage.Usage, error)
}

type FileManager interface {
	RequestUpload(ctx context.Context, userId string, req *file.UploadRequest) (*file.UploadGrant, error)
	ConfirmUpload(userId string, req *file.ConfirmRequest) (*file.File, error)
	ListFiles(userId string, typeFilter string, sort string) (*file.Listing, error)
	DeleteFile(userId string, key string) error
}

type SubscriptionManager interface {
	GetSubscription(userId string) (*subscription.Subscription, error)
	GetLimits(userId string) (*subscription.Limits, error)
}

type tokenValidator interface {
	ValidateTokens(userId string, estimatedPromptTokens int) error
}

type authenticator interface {
	AuthenticateHttpRequest(req *http.Request) (string, error)
}

type tokenCounter interface {
	Count(input string) int
}

type aiClient interface {
	Generate(ctx context.Context, prompt string, inlinePdfs []string) (*gemini.Stream, error)
}

// GenerationConfig bundles the knobs of the generation endpoint so the
// handler factory signature stays readable.
type GenerationConfig struct {
	CdnBaseUrl         string
	StreamTimeout      time.Duration
	IncrementThreshold int
	TokensPerIncrement int
}

type ApiServer struct {
	server *http.Server
	log    logger.Logger
}

func NewApiServer(log logger.Logger, mode string, port string, a authenticator, cm CourseManager, um UsageManager, fm FileManager, sm SubscriptionManager, tv tokenValidator, tc tokenCounter, client aiClient, gc GenerationConfig) (*ApiServer, error) {
	router := gin.New()
	prod := mode == "production"

	router.Use(getLoggerMiddleware(log, "api", prod))

	router.GET("/api/health", getGetHealthCheckHandler())

	authorized := router.Group("/", getAuthMiddleware(a, log, prod))

	authorized.POST("/api/ai/generate", getGenerateHandler(client, tc, tv, um, gc, log, prod))
	authorized.POST("/api/ai/track", getTrackUsageHandler(um, log, prod))

	authorized.POST("/api/courses", getCreateCourseHandler(cm, log, prod))
	authorized.GET("/api/courses", getListCoursesHandler(cm, log, prod))
	authorized.GET("/api/courses/shared", getListSharedCoursesHandler(cm, log, prod))
	authorized.GET("/api/courses/:id", getGetCourseHandler(cm, log, prod))
	authorized.POST("/api/courses/:id", getSaveCourseHandler(cm, log, prod))
	authorized.DELETE("/api/courses/:id", getDeleteCourseHandler(cm, log, prod))
	authorized.POST("/api/courses/:id/share", getShareCourseHandler(cm, log, prod))
	authorized.GET("/api/courses/:id/status", getGetCompletionsHandler(cm, log, prod))
	authorized.POST("/api/courses/:id/status", getSetCompletionHandler(cm, log, prod))

	authorized.POST("/api/uploads", getRequestUploadHandler(fm, log, prod))
	authorized.POST("/api/uploads/confirm", getConfirmUploadHandler(fm, log, prod))
	authorized.GET("/api/uploads", getListFilesHandler(fm, log, prod))
	authorized.DELETE("/api/uploads", getDeleteFileHandler(fm, log, prod))

	authorized.GET("/api/subscription", getGetSubscriptionHandler(sm, log, prod))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: router,
	}

	return &ApiServer{
		server: srv,
		log:    log,
	}, nil
}

func (as *ApiServer) Run() {
	go func() {
		as.log.Infof("api server listening at %s", as.server.Addr)
		as.log.Info("PORT " + as.server.Addr + " | POST | /api/ai/generate is set up for streaming ai course generation")
		as.log.Info("PORT " + as.server.Addr + " | POST | /api/ai/track is set up for recording usage increments")
		as.log.Info("PORT " + as.server.Addr + " | *    | /api/courses is set up for course crud and reconciliation")
		as.log.Info("PORT " + as.server.Addr + " | *    | /api/uploads is set up for signed file uploads")

		if err := as.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			as.log.Fatalf("error api server listening: %v", err)
		}
	}()
}

func (as *ApiServer) Shutdown(ctx context.Context) error {
	if err := as.server.Shutdown(ctx); err != nil {
		as.log.Infof("error shutting down api server: %v", err)
		return err
	}

	return nil
}

func getGetHealthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Status(http.StatusOK)
	}
}

func logError(log logger.Logger, msg string, prod bool, id string, err error) {
	if prod {
		log.Errorw(msg, correlationId, id, "error", err.Error())
		return
	}

	log.Errorf("correlationId:%s | %s | %v", id, msg, err)
}

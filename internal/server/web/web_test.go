package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edufly-cloud/edufly/internal/course"
	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
	"github.com/edufly-cloud/edufly/internal/file"
	"github.com/edufly-cloud/edufly/internal/provider/gemini"
	"github.com/edufly-cloud/edufly/internal/usage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Infow(msg string, keysAndValues ...interface{}) {}
func (noopLogger) Info(args ...interface{}) {}
func (noopLogger) Infof(template string, args ...interface{}) {}
func (noopLogger) Sync() error { return nil }
func (noopLogger) Debug(args ...interface{}) {}
func (noopLogger) Debugf(template string, args ...interface{}) {}
func (noopLogger) Debugw(template string, args ...interface{}) {}
func (noopLogger) Errorf(template string, args ...interface{}) {}
func (noopLogger) Errorw(msg string, keysAndValues ...interface{}) {}
func (noopLogger) Fatalf(template string, args ...interface{}) {}
func (noopLogger) Fatal(args ...interface{}) {}

type fakeUsageManager struct {
	mu         sync.Mutex
	increments []int64
	usages     map[string]int64
}

func (f *fakeUsageManager) IncrementUsage(userId string, usageType string, delta int64) (*usage.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.increments = append(f.increments, delta)
	if f.usages == nil {
		f.usages = map[string]int64{}
	}
	f.usages[userId+usageType] += delta

	return &usage.Usage{UserId: userId, Type: usageType, Value: f.usages[userId+usageType]}, nil
}

func (f *fakeUsageManager) GetUsage(userId string, usageType string) (*usage.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return &usage.Usage{UserId: userId, Type: usageType, Value: f.usages[userId+usageType]}, nil
}

func (f *fakeUsageManager) sum() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	var total int64
	for _, inc := range f.increments {
		total += inc
	}

	return total
}

type fakeTokenValidator struct {
	err error
}

func (f *fakeTokenValidator) ValidateTokens(userId string, estimatedPromptTokens int) error {
	return f.err
}

type fakeTokenCounter struct{}

func (fakeTokenCounter) Count(input string) int {
	return len(input) / 4
}

func authTestMiddleware(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(correlationId, "test")
		c.Set(userId, uid)
	}
}

func geminiTestServer(chunks []string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			w.(http.Flusher).Flush()
		}
	}))
}

// postGenerate serves router over a real listener and posts req to the
// generation endpoint, returning the response status, headers and the fully
// read body. gin's Stream needs a writer backed by a live connection.
func postGenerate(t *testing.T, router *gin.Engine, req *GenerateRequest) (*http.Response, string) {
	t.Helper()

	api := httptest.NewServer(router)
	t.Cleanup(api.Close)

	body, err := json.Marshal(req)
	require.NoError(t, err)

	res, err := http.Post(api.URL+"/api/ai/generate", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	relayed, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return res, string(relayed)
}

func TestGenerateHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	gc := GenerationConfig{
		CdnBaseUrl:         "https://cdn.example.com",
		StreamTimeout:      time.Minute,
		IncrementThreshold: 50,
		TokensPerIncrement: 1,
	}

	t.Run("relays text deltas and meters usage", func(t *testing.T) {
		srv := geminiTestServer([]string{
			`{"candidates":[{"content":{"parts":[{"text":"part one "}]}}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":20}}`,
			`{"candidates":[{"content":{"parts":[{"text":"part two"}]}}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":65}}`,
		})
		defer srv.Close()

		um := &fakeUsageManager{}
		router := gin.New()
		router.Use(authTestMiddleware("u1"))
		router.POST("/api/ai/generate", getGenerateHandler(gemini.NewClient("k", srv.URL, "gemini-test"), fakeTokenCounter{}, &fakeTokenValidator{}, um, gc, noopLogger{}, false))

		res, relayed := postGenerate(t, router, &GenerateRequest{Prompt: "make a go course"})

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, res.Header.Get("Content-Type"), "text/plain")
		assert.Equal(t, "part one part two", relayed)
		// final cumulative total across both snapshots is 75
		assert.Equal(t, int64(75), um.sum())
	})

	t.Run("assembles the prompt server side when prompt is empty", func(t *testing.T) {
		received := make(chan []byte, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			received <- data
			fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"ok\"}]}}]}\n\n")
		}))
		defer srv.Close()

		router := gin.New()
		router.Use(authTestMiddleware("u1"))
		router.POST("/api/ai/generate", getGenerateHandler(gemini.NewClient("k", srv.URL, "gemini-test"), fakeTokenCounter{}, &fakeTokenValidator{}, &fakeUsageManager{}, gc, noopLogger{}, false))

		res, _ := postGenerate(t, router, &GenerateRequest{
			Files:   []string{"uploads/u1/a.pdf"},
			Videos:  []string{"https://youtu.be/x"},
			Context: "keep it short",
		})

		require.Equal(t, http.StatusOK, res.StatusCode)

		upstreamBody := string(<-received)
		assert.Contains(t, upstreamBody, "https://cdn.example.com/uploads/u1/a.pdf")
		assert.Contains(t, upstreamBody, "https://youtu.be/x")
		assert.Contains(t, upstreamBody, "keep it short")
	})

	t.Run("inline documents are forwarded as pdf parts", func(t *testing.T) {
		received := make(chan []byte, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			received <- data
			fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"ok\"}]}}]}\n\n")
		}))
		defer srv.Close()

		router := gin.New()
		router.Use(authTestMiddleware("u1"))
		router.POST("/api/ai/generate", getGenerateHandler(gemini.NewClient("k", srv.URL, "gemini-test"), fakeTokenCounter{}, &fakeTokenValidator{}, &fakeUsageManager{}, gc, noopLogger{}, false))

		res, _ := postGenerate(t, router, &GenerateRequest{
			Prompt:      "summarize the attached document",
			FilesBase64: []string{"data:application/pdf;base64,JVBERi0xLjQ="},
		})

		require.Equal(t, http.StatusOK, res.StatusCode)

		upstreamBody := string(<-received)
		assert.Contains(t, upstreamBody, `"inlineData"`)
		assert.Contains(t, upstreamBody, "JVBERi0xLjQ=")
		// the data url prefix is stripped before the part is attached
		assert.NotContains(t, upstreamBody, "data:application/pdf")
	})

	t.Run("mid stream upstream failure surfaces an in band error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"part one \"}]}}]}\n\n")
			w.(http.Flusher).Flush()

			// drop the connection mid body so the relay sees a read error
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
		}))
		defer srv.Close()

		router := gin.New()
		router.Use(authTestMiddleware("u1"))
		router.POST("/api/ai/generate", getGenerateHandler(gemini.NewClient("k", srv.URL, "gemini-test"), fakeTokenCounter{}, &fakeTokenValidator{}, &fakeUsageManager{}, gc, noopLogger{}, false))

		res, relayed := postGenerate(t, router, &GenerateRequest{Prompt: "p"})

		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.True(t, strings.HasPrefix(relayed, "part one "))

		lines := strings.Split(relayed, "\n")
		tail := &ErrorResponse{}
		require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), tail))
		assert.Equal(t, "/errors/upstream", tail.Type)
		assert.Equal(t, http.StatusBadGateway, tail.Status)
	})

	t.Run("quota rejection happens before any streaming", func(t *testing.T) {
		router := gin.New()
		router.Use(authTestMiddleware("u1"))
		router.POST("/api/ai/generate", getGenerateHandler(gemini.NewClient("k", "http://127.0.0.1:1", "gemini-test"), fakeTokenCounter{}, &fakeTokenValidator{err: internal_errors.NewTokenQuotaError("ai token limit of 1000 exceeded")}, &fakeUsageManager{}, gc, noopLogger{}, false))

		body, _ := json.Marshal(&GenerateRequest{Prompt: "p"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ai/generate", bytes.NewReader(body)))

		assert.Equal(t, http.StatusForbidden, w.Code)

		res := &ErrorResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), res))
		assert.Equal(t, "/errors/quota-exceeded", res.Type)
	})

	t.Run("upstream establishment failure returns 502 json", func(t *testing.T) {
		router := gin.New()
		router.Use(authTestMiddleware("u1"))
		router.POST("/api/ai/generate", getGenerateHandler(gemini.NewClient("k", "http://127.0.0.1:1", "gemini-test"), fakeTokenCounter{}, &fakeTokenValidator{}, &fakeUsageManager{}, gc, noopLogger{}, false))

		body, _ := json.Marshal(&GenerateRequest{Prompt: "p"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ai/generate", bytes.NewReader(body)))

		assert.Equal(t, http.StatusBadGateway, w.Code)

		res := &ErrorResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), res))
		assert.Equal(t, "/errors/upstream", res.Type)
	})
}

func TestTrackUsageHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(um UsageManager) *gin.Engine {
		router := gin.New()
		router.Use(authTestMiddleware("u1"))
		router.POST("/api/ai/track", getTrackUsageHandler(um, noopLogger{}, false))
		return router
	}

	t.Run("valid increment returns the new counter value", func(t *testing.T) {
		um := &fakeUsageManager{usages: map[string]int64{"u1" + usage.TypeAiTokens: 40}}
		router := newRouter(um)

		body, _ := json.Marshal(&usage.IncrementRequest{UserId: "u1", Type: usage.TypeAiTokens, Increments: 10})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ai/track", bytes.NewReader(body)))

		require.Equal(t, http.StatusOK, w.Code)

		res := &TrackResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), res))
		assert.True(t, res.Success)
		assert.Equal(t, int64(50), res.Usage.Value)
		assert.Equal(t, int64(10), res.Usage.Incremented)
	})

	t.Run("non positive increments are rejected", func(t *testing.T) {
		um := &fakeUsageManager{}
		router := newRouter(um)

		for _, increments := range []int64{0, -5} {
			body, _ := json.Marshal(&usage.IncrementRequest{UserId: "u1", Type: usage.TypeAiTokens, Increments: increments})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ai/track", bytes.NewReader(body)))

			assert.Equal(t, http.StatusBadRequest, w.Code)
		}

		assert.Empty(t, um.increments)
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		router := newRouter(&fakeUsageManager{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/ai/track", bytes.NewReader([]byte(`{"increments":5}`))))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

type fakeCourseManager struct {
	reconcileErr error
	created      *course.CreateRequest
}

func (f *fakeCourseManager) CreateCourse(authorId string, req *course.CreateRequest) (*course.Course, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	f.created = req
	return &course.Course{Id: "c1", Title: req.Title, AuthorId: authorId}, nil
}

func (f *fakeCourseManager) GetCourseView(requesterId string, courseId string) (*course.View, error) {
	if courseId != "c1" {
		return nil, internal_errors.NewNotFoundError("course is not found")
	}

	return &course.View{Id: courseId}, nil
}

func (f *fakeCourseManager) ListCourses(authorId string) ([]*course.Summary, error) {
	return []*course.Summary{}, nil
}

func (f *fakeCourseManager) ListSharedCourses(userId string) ([]*course.Summary, error) {
	return []*course.Summary{}, nil
}

func (f *fakeCourseManager) Reconcile(requesterId string, courseId string, req *course.UpdateRequest) (*course.View, error) {
	if f.reconcileErr != nil {
		return nil, f.reconcileErr
	}

	return &course.View{Id: courseId, Title: req.Title}, nil
}

func (f *fakeCourseManager) DeleteCourse(requesterId string, courseId string) error {
	return nil
}

func (f *fakeCourseManager) ShareCourse(requesterId string, courseId string, targetUserId string) error {
	return nil
}

func (f *fakeCourseManager) GetCompletions(requesterId string, courseId string) ([]*course.Completion, error) {
	return nil, nil
}

func (f *fakeCourseManager) SetCompletion(requesterId string, courseId string, chapterId string, completed bool) error {
	return nil
}

func TestCourseHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(cm CourseManager) *gin.Engine {
		router := gin.New()
		router.Use(authTestMiddleware("u1"))
		router.POST("/api/courses", getCreateCourseHandler(cm, noopLogger{}, false))
		router.GET("/api/courses/:id", getGetCourseHandler(cm, noopLogger{}, false))
		router.POST("/api/courses/:id", getSaveCourseHandler(cm, noopLogger{}, false))
		return router
	}

	t.Run("create from raw model output", func(t *testing.T) {
		cm := &fakeCourseManager{}
		router := newRouter(cm)

		raw := "```json\n{\"title\":\"Go\",\"description\":\"d\",\"chapters\":[{\"title\":\"Setup\",\"duration\":\"30 min\",\"content\":\"c\"}]}\n```"
		body, _ := json.Marshal(&CreateCourseRequest{Raw: raw})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/courses", bytes.NewReader(body)))

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, cm.created)
		assert.Equal(t, "Go", cm.created.Title)
		require.Len(t, cm.created.Chapters, 1)
		assert.Equal(t, "Setup", cm.created.Chapters[0].Title)
	})

	t.Run("unparseable raw output creates nothing", func(t *testing.T) {
		cm := &fakeCourseManager{}
		router := newRouter(cm)

		body, _ := json.Marshal(&CreateCourseRequest{Raw: "Sure, here is your course: {title: unquoted}"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/courses", bytes.NewReader(body)))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Nil(t, cm.created)

		res := &ErrorResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), res))
		assert.Equal(t, "/errors/generation-parse", res.Type)
	})

	t.Run("non author save is rejected with 401", func(t *testing.T) {
		cm := &fakeCourseManager{reconcileErr: internal_errors.NewAuthError("only the author can edit a course")}
		router := newRouter(cm)

		body, _ := json.Marshal(&course.UpdateRequest{Title: "Go"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/courses/c1", bytes.NewReader(body)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing course returns 404", func(t *testing.T) {
		router := newRouter(&fakeCourseManager{})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/courses/missing", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

type fakeFileManager struct {
	uploadErr error
}

func (f *fakeFileManager) RequestUpload(ctx context.Context, uid string, req *file.UploadRequest) (*file.UploadGrant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if f.uploadErr != nil {
		return nil, f.uploadErr
	}

	return &file.UploadGrant{Url: "https://r2.example.com/signed", Key: "uploads/u1/x-" + req.FileName}, nil
}

func (f *fakeFileManager) ConfirmUpload(uid string, req *file.ConfirmRequest) (*file.File, error) {
	return &file.File{Key: req.Key}, nil
}

func (f *fakeFileManager) ListFiles(uid string, typeFilter string, sort string) (*file.Listing, error) {
	return &file.Listing{Files: []*file.File{}, Current: 0, Max: 100 * 1024 * 1024}, nil
}

func (f *fakeFileManager) DeleteFile(uid string, key string) error {
	return nil
}

func TestUploadHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(fm FileManager) *gin.Engine {
		router := gin.New()
		router.Use(authTestMiddleware("u1"))
		router.POST("/api/uploads", getRequestUploadHandler(fm, noopLogger{}, false))
		return router
	}

	t.Run("upload over the storage quota is rejected with 403", func(t *testing.T) {
		router := newRouter(&fakeFileManager{uploadErr: internal_errors.NewStorageQuotaError("storage limit exceeded")})

		body, _ := json.Marshal(&file.UploadRequest{FileName: "a.pdf", FileSize: 1024, FileType: "application/pdf"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/uploads", bytes.NewReader(body)))

		assert.Equal(t, http.StatusForbidden, w.Code)

		res := &ErrorResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), res))
		assert.Equal(t, "storage limit exceeded", res.Detail)
	})

	t.Run("valid upload request yields a signed url and key", func(t *testing.T) {
		router := newRouter(&fakeFileManager{})

		body, _ := json.Marshal(&file.UploadRequest{FileName: "a.pdf", FileSize: 1024, FileType: "application/pdf"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/uploads", bytes.NewReader(body)))

		require.Equal(t, http.StatusOK, w.Code)

		grant := &file.UploadGrant{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), grant))
		assert.NotEmpty(t, grant.Url)
		assert.Contains(t, grant.Key, "a.pdf")
	})

	t.Run("invalid upload request is rejected with 400", func(t *testing.T) {
		router := newRouter(&fakeFileManager{})

		body, _ := json.Marshal(&file.UploadRequest{FileName: "", FileSize: 0})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/uploads", bytes.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

package manager

import (
	"time"

	"github.com/edufly-cloud/edufly/internal/course"
	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
	"github.com/edufly-cloud/edufly/internal/file"
	"github.com/edufly-cloud/edufly/internal/util"
)

type CourseStorage interface {
	CreateCourse(c *course.Course, chapters []*course.Chapter, fileKeys []string) error
	GetCourse(id string) (*course.Course, error)
	GetChaptersByCourseId(courseId string) ([]*course.Chapter, error)
	GetCourseSummariesByAuthorId(authorId string) ([]*course.Summary, error)
	GetSharedCourseSummaries(userId string) ([]*course.Summary, error)
	GetFilesByCourseId(courseId string) ([]*file.File, error)
	GetCompletionsByCourseId(userId string, courseId string) ([]*course.Completion, error)
	UpsertCompletion(userId string, chapterId string, completed bool) error
	UpdateCourseTree(id string, title string, description string, updatedAt int64, deleteIds []string, updates []*course.Chapter, inserts []*course.Chapter, fileKeys []string) error
	DeleteCourse(id string) error
	ShareCourse(courseId string, userId string) error
}

type CourseManager struct {
	s CourseStorage
}

func NewCourseManager(s CourseStorage) *CourseManager {
	return &CourseManager{
		s: s,
	}
}

func (m *CourseManager) CreateCourse(authorId string, req *course.CreateRequest) (*course.Course, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	c := &course.Course{
		Id:          util.NewUuid(),
		Title:       req.Title,
		Description: req.Description,
		AuthorId:    authorId,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	chapters := make([]*course.Chapter, 0, len(req.Chapters))
	for position, ch := range req.Chapters {
		chapters = append(chapters, &course.Chapter{
			Id:       util.NewUuid(),
			CourseId: c.Id,
			Title:    ch.Title,
			Duration: ch.Duration,
			Content:  ch.Content,
			Position: position,
		})
	}

	if err := m.s.CreateCourse(c, chapters, req.Files); err != nil {
		return nil, err
	}

	return c, nil
}

// GetCourseView returns the course with chapters augmented by the
// requester's completion flags. Both the author and shared-with users may
// read; anyone else is rejected.
func (m *CourseManager) GetCourseView(requesterId string, courseId string) (*course.View, error) {
	c, err := m.s.GetCourse(courseId)
	if err != nil {
		return nil, err
	}

	if err := m.authorizeRead(c, requesterId); err != nil {
		return nil, err
	}

	chapters, err := m.s.GetChaptersByCourseId(courseId)
	if err != nil {
		return nil, err
	}

	completions, err := m.s.GetCompletionsByCourseId(requesterId, courseId)
	if err != nil {
		return nil, err
	}

	completed := map[string]bool{}
	for _, completion := range completions {
		if completion.Completed {
			completed[completion.ChapterId] = true
		}
	}

	views := make([]*course.ChapterView, 0, len(chapters))
	for _, ch := range chapters {
		views = append(views, &course.ChapterView{
			Id:        ch.Id,
			Title:     ch.Title,
			Duration:  ch.Duration,
			Content:   ch.Content,
			Completed: completed[ch.Id],
		})
	}

	files, err := m.s.GetFilesByCourseId(courseId)
	if err != nil {
		return nil, err
	}

	return &course.View{
		Id:          c.Id,
		Title:       c.Title,
		Description: c.Description,
		AuthorId:    c.AuthorId,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Chapters:    views,
		Files:       files,
	}, nil
}

func (m *CourseManager) ListCourses(authorId string) ([]*course.Summary, error) {
	return m.s.GetCourseSummariesByAuthorId(authorId)
}

func (m *CourseManager) ListSharedCourses(userId string) ([]*course.Summary, error) {
	return m.s.GetSharedCourseSummaries(userId)
}

func (m *CourseManager) DeleteCourse(requesterId string, courseId string) error {
	c, err := m.s.GetCourse(courseId)
	if err != nil {
		return err
	}

	if c.AuthorId != requesterId {
		return internal_errors.NewAuthError("only the author can delete a course")
	}

	return m.s.DeleteCourse(courseId)
}

func (m *CourseManager) ShareCourse(requesterId string, courseId string, targetUserId string) error {
	c, err := m.s.GetCourse(courseId)
	if err != nil {
		return err
	}

	if c.AuthorId != requesterId {
		return internal_errors.NewAuthError("only the author can share a course")
	}

	return m.s.ShareCourse(courseId, targetUserId)
}

func (m *CourseManager) GetCompletions(requesterId string, courseId string) ([]*course.Completion, error) {
	c, err := m.s.GetCourse(courseId)
	if err != nil {
		return nil, err
	}

	if err := m.authorizeRead(c, requesterId); err != nil {
		return nil, err
	}

	return m.s.GetCompletionsByCourseId(requesterId, courseId)
}

func (m *CourseManager) SetCompletion(requesterId string, courseId string, chapterId string, completed bool) error {
	c, err := m.s.GetCourse(courseId)
	if err != nil {
		return err
	}

	if err := m.authorizeRead(c, requesterId); err != nil {
		return err
	}

	return m.s.UpsertCompletion(requesterId, chapterId, completed)
}

// Reconcile diffs the desired chapter list against the persisted one and
// applies the result atomically. Chapters with an id are updated in place
// so completion records stay valid; stored chapters absent from the
// incoming list are deleted; chapters without an id are inserted unless a
// surviving chapter (or an earlier insert in the same request) already
// carries the same title — the first occurrence wins.
func (m *CourseManager) Reconcile(requesterId string, courseId string, req *course.UpdateRequest) (*course.View, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c, err := m.s.GetCourse(courseId)
	if err != nil {
		return nil, err
	}

	if c.AuthorId != requesterId {
		return nil, internal_errors.NewAuthError("only the author can edit a course")
	}

	existing, err := m.s.GetChaptersByCourseId(courseId)
	if err != nil {
		return nil, err
	}

	incomingIds := map[string]bool{}
	titles := map[string]bool{}
	for _, ch := range req.Chapters {
		if len(ch.Id) > 0 {
			incomingIds[ch.Id] = true
			titles[ch.Title] = true
		}
	}

	deleteIds := []string{}
	for _, ch := range existing {
		if !incomingIds[ch.Id] {
			deleteIds = append(deleteIds, ch.Id)
		}
	}

	updates := []*course.Chapter{}
	inserts := []*course.Chapter{}
	for position, ch := range req.Chapters {
		if len(ch.Id) > 0 {
			updates = append(updates, &course.Chapter{
				Id:       ch.Id,
				CourseId: courseId,
				Title:    ch.Title,
				Duration: ch.Duration,
				Content:  ch.Content,
				Position: position,
			})
			continue
		}

		if titles[ch.Title] {
			continue
		}

		titles[ch.Title] = true
		inserts = append(inserts, &course.Chapter{
			Id:       util.NewUuid(),
			CourseId: courseId,
			Title:    ch.Title,
			Duration: ch.Duration,
			Content:  ch.Content,
			Position: position,
		})
	}

	err = m.s.UpdateCourseTree(courseId, req.Title, req.Description, time.Now().Unix(), deleteIds, updates, inserts, req.Files)
	if err != nil {
		return nil, err
	}

	return m.GetCourseView(requesterId, courseId)
}

func (m *CourseManager) authorizeRead(c *course.Course, requesterId string) error {
	if c.AuthorId == requesterId {
		return nil
	}

	for _, userId := range c.SharedWith {
		if userId == requesterId {
			return nil
		}
	}

	return internal_errors.NewAuthError("course does not belong to the user")
}

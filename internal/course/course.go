package course

import (
	"fmt"
	"strings"

	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
	"github.com/edufly-cloud/edufly/internal/file"
)

type Course struct {
	Id          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	AuthorId    string   `json:"authorId"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`
	SharedWith  []string `json:"sharedWith,omitempty"`
}

type Chapter struct {
	Id       string `json:"id"`
	CourseId string `json:"courseId"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Content  string `json:"content"`
	Position int    `json:"-"`
}

// Summary is the list-view projection of a course.
type Summary struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
	ChapterCount int    `json:"chapterCount"`
}

// ChapterView is a chapter augmented with the requesting user's completion
// flag. Completion is tracked per (user, chapter) and survives content edits
// as long as the chapter id is stable.
type ChapterView struct {
	Id        string `json:"id"`
	Title     string `json:"title"`
	Duration  string `json:"duration"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

// View is the full read model handed to the client: course metadata, ordered
// chapters with the requester's completion flags and the attached source
// files.
type View struct {
	Id          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	AuthorId    string         `json:"authorId"`
	CreatedAt   int64          `json:"createdAt"`
	UpdatedAt   int64          `json:"updatedAt"`
	Chapters    []*ChapterView `json:"chapters"`
	Files       []*file.File   `json:"files"`
}

type Completion struct {
	UserId    string `json:"userId"`
	ChapterId string `json:"chapterId"`
	Completed bool   `json:"completed"`
}

type ChapterInput struct {
	Id       string `json:"id"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Content  string `json:"content"`
}

type CreateRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Chapters    []*ChapterInput `json:"chapters"`
	Files       []string        `json:"files"`
}

func (cr *CreateRequest) Validate() error {
	invalid := []string{}

	if len(strings.TrimSpace(cr.Title)) == 0 {
		invalid = append(invalid, "title")
	}

	for index, ch := range cr.Chapters {
		if ch == nil || len(strings.TrimSpace(ch.Title)) == 0 {
			invalid = append(invalid, fmt.Sprintf("chapters.%d.title", index))
		}
	}

	if len(invalid) > 0 {
		return internal_errors.NewValidationError(fmt.Sprintf("fields [%s] are invalid", strings.Join(invalid, ", ")))
	}

	return nil
}

// UpdateRequest is the desired state submitted to the save endpoint. Chapters
// carrying an id are updated in place, chapters without an id are inserted
// (subject to the duplicate-title guard) and stored chapters absent from the
// list are deleted.
type UpdateRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Chapters    []*ChapterInput `json:"chapters"`
	Files       []string        `json:"files"`
}

func (ur *UpdateRequest) Validate() error {
	invalid := []string{}

	if len(strings.TrimSpace(ur.Title)) == 0 {
		invalid = append(invalid, "title")
	}

	for index, ch := range ur.Chapters {
		if ch == nil {
			invalid = append(invalid, fmt.Sprintf("chapters.%d", index))
			continue
		}

		if len(strings.TrimSpace(ch.Title)) == 0 {
			invalid = append(invalid, fmt.Sprintf("chapters.%d.title", index))
		}
	}

	if len(invalid) > 0 {
		return internal_errors.NewValidationError(fmt.Sprintf("fields [%s] are invalid", strings.Join(invalid, ", ")))
	}

	return nil
}

package file

import (
	"fmt"
	"strings"

	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
)

type File struct {
	Id        string `json:"id"`
	UserId    string `json:"userId"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Size      int64  `json:"size"`
	CreatedAt int64  `json:"createdAt"`
}

type UploadGrant struct {
	Url string `json:"url"`
	Key string `json:"key"`
}

type Listing struct {
	Files   []*File `json:"files"`
	Current int64   `json:"current"`
	Max     int64   `json:"max"`
}

type UploadRequest struct {
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

func (ur *UploadRequest) Validate() error {
	invalid := []string{}

	if len(strings.TrimSpace(ur.FileName)) == 0 {
		invalid = append(invalid, "fileName")
	}

	if ur.FileSize <= 0 {
		invalid = append(invalid, "fileSize")
	}

	if len(strings.TrimSpace(ur.FileType)) == 0 {
		invalid = append(invalid, "fileType")
	}

	if len(invalid) > 0 {
		return internal_errors.NewValidationError(fmt.Sprintf("fields [%s] are invalid", strings.Join(invalid, ", ")))
	}

	return nil
}

type ConfirmRequest struct {
	Key      string `json:"key"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
}

func (cr *ConfirmRequest) Validate() error {
	invalid := []string{}

	if len(strings.TrimSpace(cr.Key)) == 0 {
		invalid = append(invalid, "key")
	}

	if len(strings.TrimSpace(cr.FileName)) == 0 {
		invalid = append(invalid, "fileName")
	}

	if cr.FileSize <= 0 {
		invalid = append(invalid, "fileSize")
	}

	if len(invalid) > 0 {
		return internal_errors.NewValidationError(fmt.Sprintf("fields [%s] are invalid", strings.Join(invalid, ", ")))
	}

	return nil
}

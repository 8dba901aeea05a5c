package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/edufly-cloud/edufly/internal/file"
	"github.com/edufly-cloud/edufly/internal/subscription"
	"github.com/edufly-cloud/edufly/internal/util"
)

type FileStorage interface {
	CreateFile(f *file.File) (*file.File, error)
	GetFilesByUserId(userId string, typeFilter string, sort string) ([]*file.File, error)
	GetTotalFileSize(userId string) (int64, error)
	DeleteFile(key string, userId string) (*file.File, error)
}

type uploadSigner interface {
	SignUpload(ctx context.Context, key string, contentType string) (string, error)
}

type storageValidator interface {
	ValidateStorage(userId string, requestedBytes int64) error
}

type limitsProvider interface {
	GetLimits(userId string) (*subscription.Limits, error)
}

type FileManager struct {
	s  FileStorage
	sv storageValidator
	us uploadSigner
	lp limitsProvider
}

func NewFileManager(s FileStorage, sv storageValidator, us uploadSigner, lp limitsProvider) *FileManager {
	return &FileManager{
		s:  s,
		sv: sv,
		us: us,
		lp: lp,
	}
}

// RequestUpload checks the storage quota against the declared size and hands
// back a presigned url. Nothing is recorded until the client confirms the
// upload, so an abandoned grant costs the user no quota.
func (m *FileManager) RequestUpload(ctx context.Context, userId string, req *file.UploadRequest) (*file.UploadGrant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := m.sv.ValidateStorage(userId, req.FileSize); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("uploads/%s/%s-%s", userId, util.NewUuid(), req.FileName)
	url, err := m.us.SignUpload(ctx, key, req.FileType)
	if err != nil {
		return nil, err
	}

	return &file.UploadGrant{
		Url: url,
		Key: key,
	}, nil
}

// ConfirmUpload records a completed upload. Storage consumption is derived
// from the files table, so recording the row is all the accounting there is.
func (m *FileManager) ConfirmUpload(userId string, req *file.ConfirmRequest) (*file.File, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return m.s.CreateFile(&file.File{
		Id:        util.NewUuid(),
		UserId:    userId,
		Key:       req.Key,
		Name:      req.FileName,
		Type:      req.FileType,
		Size:      req.FileSize,
		CreatedAt: time.Now().Unix(),
	})
}

func (m *FileManager) ListFiles(userId string, typeFilter string, sort string) (*file.Listing, error) {
	files, err := m.s.GetFilesByUserId(userId, typeFilter, sort)
	if err != nil {
		return nil, err
	}

	current, err := m.s.GetTotalFileSize(userId)
	if err != nil {
		return nil, err
	}

	limits, err := m.lp.GetLimits(userId)
	if err != nil {
		return nil, err
	}

	return &file.Listing{
		Files:   files,
		Current: current,
		Max:     limits.StorageLimitBytes,
	}, nil
}

func (m *FileManager) DeleteFile(userId string, key string) error {
	_, err := m.s.DeleteFile(key, userId)
	return err
}

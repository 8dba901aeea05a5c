package postgresql

import (
	"context"
	"database/sql"
	"errors"

	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
	"github.com/edufly-cloud/edufly/internal/file"
	"github.com/lib/pq"
)

func (s *Store) CreateFile(f *file.File) (*file.File, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout,
		"INSERT INTO files (id, user_id, key, name, type, size, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		f.Id, f.UserId, f.Key, f.Name, f.Type, f.Size, f.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, NewDuplicationError("file key already exists")
		}

		return nil, err
	}

	return f, nil
}

func (s *Store) GetFilesByUserId(userId string, typeFilter string, sort string) ([]*file.File, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	query := "SELECT id, user_id, key, name, type, size, created_at FROM files WHERE user_id = $1"
	args := []any{userId}

	if len(typeFilter) != 0 && typeFilter != "all" {
		query += " AND type LIKE '%' || $2 || '%'"
		args = append(args, typeFilter)
	}

	if sort == "size" {
		query += " ORDER BY size DESC"
	} else {
		query += " ORDER BY created_at DESC"
	}

	rows, err := s.db.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFiles(rows)
}

func (s *Store) GetFilesByCourseId(courseId string) ([]*file.File, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	rows, err := s.db.QueryContext(ctxTimeout,
		`SELECT f.id, f.user_id, f.key, f.name, f.type, f.size, f.created_at
		 FROM files f
		 INNER JOIN course_files cf ON cf.file_key = f.key
		 WHERE cf.course_id = $1
		 ORDER BY f.created_at`,
		courseId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFiles(rows)
}

func (s *Store) GetTotalFileSize(userId string) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	var total int64
	err := s.db.QueryRowContext(ctxTimeout,
		"SELECT COALESCE(SUM(size), 0) FROM files WHERE user_id = $1",
		userId,
	).Scan(&total)
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (s *Store) DeleteFile(key string, userId string) (*file.File, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	deleted := &file.File{}
	err := s.db.QueryRowContext(ctxTimeout,
		"DELETE FROM files WHERE key = $1 AND user_id = $2 RETURNING id, user_id, key, name, type, size, created_at",
		key, userId,
	).Scan(&deleted.Id, &deleted.UserId, &deleted.Key, &deleted.Name, &deleted.Type, &deleted.Size, &deleted.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NewNotFoundError("file is not found")
		}

		return nil, err
	}

	return deleted, nil
}

func scanFiles(rows *sql.Rows) ([]*file.File, error) {
	files := []*file.File{}
	for rows.Next() {
		f := &file.File{}
		if err := rows.Scan(&f.Id, &f.UserId, &f.Key, &f.Name, &f.Type, &f.Size, &f.CreatedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	return files, rows.Err()
}

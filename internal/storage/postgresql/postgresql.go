package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/edufly-cloud/edufly/internal/logger"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	lg logger.Logger
	wt time.Duration
	rt time.Duration
}

func NewStore(connStr string, lg logger.Logger, wt time.Duration, rt time.Duration) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	return &Store{
		db: db,
		lg: lg,
		wt: wt,
		rt: rt,
	}, nil
}

func (s *Store) CreateCoursesTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS courses (
		id VARCHAR(255) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		author_id VARCHAR(255) NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}

func (s *Store) CreateChaptersTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS chapters (
		id VARCHAR(255) PRIMARY KEY,
		course_id VARCHAR(255) NOT NULL REFERENCES courses (id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		duration VARCHAR(255) NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		position INT NOT NULL DEFAULT 0
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}

// Completion rows cascade with their chapter so that deleting a chapter
// during reconciliation never leaves dangling progress rows.
func (s *Store) CreateChapterCompletionsTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS chapter_completions (
		user_id VARCHAR(255) NOT NULL,
		chapter_id VARCHAR(255) NOT NULL REFERENCES chapters (id) ON DELETE CASCADE,
		completed BOOLEAN NOT NULL,
		PRIMARY KEY (user_id, chapter_id)
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}

func (s *Store) CreateCourseSharesTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS course_shares (
		course_id VARCHAR(255) NOT NULL REFERENCES courses (id) ON DELETE CASCADE,
		user_id VARCHAR(255) NOT NULL,
		PRIMARY KEY (course_id, user_id)
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}

func (s *Store) CreateFilesTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS files (
		id VARCHAR(255) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		key VARCHAR(255) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		type VARCHAR(255) NOT NULL DEFAULT '',
		size BIGINT NOT NULL,
		created_at BIGINT NOT NULL
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}

func (s *Store) CreateCourseFilesTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS course_files (
		course_id VARCHAR(255) NOT NULL REFERENCES courses (id) ON DELETE CASCADE,
		file_key VARCHAR(255) NOT NULL REFERENCES files (key) ON DELETE CASCADE,
		PRIMARY KEY (course_id, file_key)
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}

func (s *Store) CreateUsageTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS usage (
		user_id VARCHAR(255) NOT NULL,
		type VARCHAR(255) NOT NULL,
		value BIGINT NOT NULL,
		PRIMARY KEY (user_id, type)
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}

func (s *Store) CreatePlansTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS plans (
		id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		storage_limit_mb BIGINT NOT NULL,
		ai_tokens_per_month BIGINT NOT NULL,
		price_cents BIGINT NOT NULL DEFAULT 0,
		currency VARCHAR(16) NOT NULL DEFAULT 'USD',
		created_at BIGINT NOT NULL
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}

func (s *Store) CreateSubscriptionsTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS subscriptions (
		id VARCHAR(255) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL UNIQUE,
		plan_id VARCHAR(255) NOT NULL REFERENCES plans (id),
		started_at BIGINT NOT NULL,
		expires_at BIGINT,
		renewed BOOLEAN NOT NULL DEFAULT FALSE
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}

func (s *Store) CreateSessionsTable() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS sessions (
		token VARCHAR(255) PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		expires_at BIGINT NOT NULL
	)`

	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, createTableQuery)
	if err != nil {
		return err
	}

	return nil
}

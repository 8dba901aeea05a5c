package postgresql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/edufly-cloud/edufly/internal/course"
	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
	"github.com/lib/pq"
)

func (s *Store) CreateCourse(c *course.Course, chapters []*course.Chapter, fileKeys []string) error {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	tx, err := s.db.BeginTx(ctxTimeout, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctxTimeout,
		"INSERT INTO courses (id, title, description, author_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)",
		c.Id, c.Title, c.Description, c.AuthorId, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return err
	}

	for position, ch := range chapters {
		_, err = tx.ExecContext(ctxTimeout,
			"INSERT INTO chapters (id, course_id, title, duration, content, position) VALUES ($1, $2, $3, $4, $5, $6)",
			ch.Id, c.Id, ch.Title, ch.Duration, ch.Content, position,
		)
		if err != nil {
			return err
		}
	}

	for _, key := range fileKeys {
		_, err = tx.ExecContext(ctxTimeout,
			"INSERT INTO course_files (course_id, file_key) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			c.Id, key,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) GetCourse(id string) (*course.Course, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	c := &course.Course{}
	err := s.db.QueryRowContext(ctxTimeout,
		"SELECT id, title, description, author_id, created_at, updated_at FROM courses WHERE id = $1",
		id,
	).Scan(&c.Id, &c.Title, &c.Description, &c.AuthorId, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal_errors.NewNotFoundError("course is not found")
		}

		return nil, err
	}

	shared, err := s.getSharedUserIds(id)
	if err != nil {
		return nil, err
	}
	c.SharedWith = shared

	return c, nil
}

func (s *Store) getSharedUserIds(courseId string) ([]string, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	rows, err := s.db.QueryContext(ctxTimeout, "SELECT user_id FROM course_shares WHERE course_id = $1", courseId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	userIds := []string{}
	for rows.Next() {
		var userId string
		if err := rows.Scan(&userId); err != nil {
			return nil, err
		}
		userIds = append(userIds, userId)
	}

	return userIds, rows.Err()
}

func (s *Store) GetChaptersByCourseId(courseId string) ([]*course.Chapter, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	rows, err := s.db.QueryContext(ctxTimeout,
		"SELECT id, course_id, title, duration, content FROM chapters WHERE course_id = $1 ORDER BY position",
		courseId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chapters := []*course.Chapter{}
	for rows.Next() {
		ch := &course.Chapter{}
		if err := rows.Scan(&ch.Id, &ch.CourseId, &ch.Title, &ch.Duration, &ch.Content); err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}

	return chapters, rows.Err()
}

func (s *Store) GetCourseSummariesByAuthorId(authorId string) ([]*course.Summary, error) {
	query := `
	SELECT c.id, c.title, c.description, c.created_at, c.updated_at, COUNT(ch.id)
	FROM courses c
	LEFT JOIN chapters ch ON ch.course_id = c.id
	WHERE c.author_id = $1
	GROUP BY c.id
	ORDER BY c.updated_at DESC`

	return s.getCourseSummaries(query, authorId)
}

func (s *Store) GetSharedCourseSummaries(userId string) ([]*course.Summary, error) {
	query := `
	SELECT c.id, c.title, c.description, c.created_at, c.updated_at, COUNT(ch.id)
	FROM courses c
	INNER JOIN course_shares cs ON cs.course_id = c.id AND cs.user_id = $1
	LEFT JOIN chapters ch ON ch.course_id = c.id
	GROUP BY c.id
	ORDER BY c.updated_at DESC`

	return s.getCourseSummaries(query, userId)
}

func (s *Store) getCourseSummaries(query string, arg string) ([]*course.Summary, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	rows, err := s.db.QueryContext(ctxTimeout, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []*course.Summary{}
	for rows.Next() {
		summary := &course.Summary{}
		if err := rows.Scan(&summary.Id, &summary.Title, &summary.Description, &summary.CreatedAt, &summary.UpdatedAt, &summary.ChapterCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

func (s *Store) DeleteCourse(id string) error {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	result, err := s.db.ExecContext(ctxTimeout, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return internal_errors.NewNotFoundError("course is not found")
	}

	return nil
}

func (s *Store) ShareCourse(courseId string, userId string) error {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout,
		"INSERT INTO course_shares (course_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		courseId, userId,
	)

	return err
}

// UpdateCourseTree applies one reconciliation as a single transaction:
// course metadata, chapter deletions, in-place chapter updates, fresh
// inserts and the file attachment set all commit or roll back together.
// The course row is locked first so concurrent saves against the same
// course serialize instead of interleaving their delete/update/insert
// triples.
func (s *Store) UpdateCourseTree(id string, title string, description string, updatedAt int64, deleteIds []string, updates []*course.Chapter, inserts []*course.Chapter, fileKeys []string) error {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	tx, err := s.db.BeginTx(ctxTimeout, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var lockedId string
	err = tx.QueryRowContext(ctxTimeout, "SELECT id FROM courses WHERE id = $1 FOR UPDATE", id).Scan(&lockedId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return internal_errors.NewNotFoundError("course is not found")
		}

		return err
	}

	_, err = tx.ExecContext(ctxTimeout,
		"UPDATE courses SET title = $2, description = $3, updated_at = $4 WHERE id = $1",
		id, title, description, updatedAt,
	)
	if err != nil {
		return err
	}

	if len(deleteIds) > 0 {
		_, err = tx.ExecContext(ctxTimeout,
			"DELETE FROM chapters WHERE course_id = $1 AND id = ANY($2)",
			id, pq.Array(deleteIds),
		)
		if err != nil {
			return err
		}
	}

	for _, ch := range updates {
		_, err = tx.ExecContext(ctxTimeout,
			"UPDATE chapters SET title = $3, duration = $4, content = $5, position = $6 WHERE course_id = $1 AND id = $2",
			id, ch.Id, ch.Title, ch.Duration, ch.Content, ch.Position,
		)
		if err != nil {
			return err
		}
	}

	for _, ch := range inserts {
		_, err = tx.ExecContext(ctxTimeout,
			"INSERT INTO chapters (id, course_id, title, duration, content, position) VALUES ($1, $2, $3, $4, $5, $6)",
			ch.Id, id, ch.Title, ch.Duration, ch.Content, ch.Position,
		)
		if err != nil {
			return err
		}
	}

	if fileKeys != nil {
		_, err = tx.ExecContext(ctxTimeout, "DELETE FROM course_files WHERE course_id = $1", id)
		if err != nil {
			return err
		}

		for _, key := range fileKeys {
			_, err = tx.ExecContext(ctxTimeout,
				"INSERT INTO course_files (course_id, file_key) VALUES ($1, $2) ON CONFLICT DO NOTHING",
				id, key,
			)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

package postgresql

import (
	"context"

	"github.com/edufly-cloud/edufly/internal/course"
)

func (s *Store) UpsertCompletion(userId string, chapterId string, completed bool) error {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout,
		`INSERT INTO chapter_completions (user_id, chapter_id, completed) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, chapter_id) DO UPDATE SET completed = $3`,
		userId, chapterId, completed,
	)

	return err
}

func (s *Store) GetCompletionsByCourseId(userId string, courseId string) ([]*course.Completion, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	rows, err := s.db.QueryContext(ctxTimeout,
		`SELECT cc.user_id, cc.chapter_id, cc.completed
		 FROM chapter_completions cc
		 INNER JOIN chapters ch ON ch.id = cc.chapter_id
		 WHERE cc.user_id = $1 AND ch.course_id = $2`,
		userId, courseId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completions := []*course.Completion{}
	for rows.Next() {
		completion := &course.Completion{}
		if err := rows.Scan(&completion.UserId, &completion.ChapterId, &completion.Completed); err != nil {
			return nil, err
		}
		completions = append(completions, completion)
	}

	return completions, rows.Err()
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-assessment/internal/model"
)

const sessionColumns = `id, class_id, exam_id, start_time, end_time, retry_times, is_retryable, is_active,
	should_shuffle_questions, should_shuffle_answers, allow_partial_scoring, created_by, created_at, updated_at`

// SessionRepository handles exam session data access.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (*model.SessionSchedule, error) {
	s := &model.SessionSchedule{}
	err := row.Scan(&s.ID, &s.ClassID, &s.ExamID, &s.StartTime, &s.EndTime, &s.RetryTimes, &s.IsRetryable, &s.IsActive,
		&s.ShouldShuffleQuestions, &s.ShouldShuffleAnswers, &s.AllowPartialScoring, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new session. ID, CreatedAt and UpdatedAt are filled in.
func (r *SessionRepository) Create(ctx context.Context, s *model.SessionSchedule) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (class_id, exam_id, start_time, end_time, retry_times, is_retryable, is_active,
			should_shuffle_questions, should_shuffle_answers, allow_partial_scoring, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		s.ClassID, s.ExamID, s.StartTime, s.EndTime, s.RetryTimes, s.IsRetryable, s.IsActive,
		s.ShouldShuffleQuestions, s.ShouldShuffleAnswers, s.AllowPartialScoring, s.CreatedBy,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SessionSchedule, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1`, id))
}

// Update overwrites the administrative parameters of a session.
// Returns pgx.ErrNoRows if the session does not exist.
func (r *SessionRepository) Update(ctx context.Context, s *model.SessionSchedule) error {
	return r.pool.QueryRow(ctx,
		`UPDATE exam_sessions
		 SET exam_id = $2, start_time = $3, end_time = $4, retry_times = $5, is_retryable = $6,
		     should_shuffle_questions = $7, should_shuffle_answers = $8, allow_partial_scoring = $9,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1
		 RETURNING updated_at`,
		s.ID, s.ExamID, s.StartTime, s.EndTime, s.RetryTimes, s.IsRetryable,
		s.ShouldShuffleQuestions, s.ShouldShuffleAnswers, s.AllowPartialScoring,
	).Scan(&s.UpdatedAt)
}

// SetActive toggles the is_active flag. Returns pgx.ErrNoRows if the session does not exist.
func (r *SessionRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions SET is_active = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a session; attempts and answers cascade.
// Returns pgx.ErrNoRows if the session does not exist.
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exam_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByClass retrieves all sessions of a class, newest window first.
func (r *SessionRepository) ListByClass(ctx context.Context, classID uuid.UUID) ([]model.SessionSchedule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE class_id = $1 ORDER BY start_time DESC`, classID)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

// ListActiveForStudent retrieves the active sessions of every active class the
// student holds an ACTIVE enrollment in, newest window first.
func (r *SessionRepository) ListActiveForStudent(ctx context.Context, studentID uuid.UUID) ([]model.SessionSchedule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE is_active AND class_id IN (
			SELECT e.class_id FROM class_enrollments e
			JOIN classrooms c ON c.id = e.class_id
			WHERE e.student_id = $1 AND e.status = 'ACTIVE' AND c.is_active
		 )
		 ORDER BY start_time DESC`, studentID)
	if err != nil {
		return nil, err
	}
	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]model.SessionSchedule, error) {
	defer rows.Close()

	var sessions []model.SessionSchedule
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// CountAttempts returns how many attempts exist for a session.
func (r *SessionRepository) CountAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM student_attempts WHERE session_id = $1`, id).Scan(&n)
	return n, err
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-assessment/internal/database"
	"github.com/stemsi/exstem-assessment/internal/model"
)

var (
	// ErrAttemptLimitReached means the student already holds the maximum number of attempts.
	ErrAttemptLimitReached = errors.New("attempt limit reached")
	// ErrAttemptNumberTaken means a concurrent Start claimed the computed attempt number first.
	ErrAttemptNumberTaken = errors.New("attempt number already taken")
	// ErrAttemptNotInProgress means the conditional IN_PROGRESS → SUBMITTED update matched nothing.
	ErrAttemptNotInProgress = errors.New("attempt is not in progress")
)

const attemptColumns = `id, session_id, student_id, started_at, submitted_at, score, total_points, attempt_number, status`

// AttemptRepository handles student attempt and answer data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func scanAttempt(row pgx.Row) (*model.StudentAttempt, error) {
	a := &model.StudentAttempt{}
	err := row.Scan(&a.ID, &a.SessionID, &a.StudentID, &a.StartedAt, &a.SubmittedAt, &a.Score, &a.TotalPoints, &a.AttemptNumber, &a.Status)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func collectAttempts(rows pgx.Rows) ([]model.StudentAttempt, error) {
	defer rows.Close()
	var attempts []model.StudentAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// CountByStudent returns how many attempts a student holds in a session, in any status.
func (r *AttemptRepository) CountByStudent(ctx context.Context, sessionID, studentID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM student_attempts WHERE session_id = $1 AND student_id = $2`,
		sessionID, studentID,
	).Scan(&n)
	return n, err
}

// CreateNext inserts attempt a with the next attempt number for (session, student)
// in one statement. The number is computed from the current maximum and the row is
// only written while it stays within limit; the unique
// (session_id, student_id, attempt_number) constraint rejects a concurrent twin.
//
// Returns ErrAttemptLimitReached or ErrAttemptNumberTaken when no row was written.
func (r *AttemptRepository) CreateNext(ctx context.Context, a *model.StudentAttempt, limit int) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO student_attempts (id, session_id, student_id, attempt_number, status, started_at)
		 SELECT $3::uuid, $1::uuid, $2::uuid, COALESCE(MAX(attempt_number), 0) + 1, $5, $6::timestamptz
		 FROM student_attempts
		 WHERE session_id = $1 AND student_id = $2
		 HAVING COALESCE(MAX(attempt_number), 0) < $4::int
		 ON CONFLICT (session_id, student_id, attempt_number) DO NOTHING
		 RETURNING attempt_number, started_at`,
		a.SessionID, a.StudentID, a.ID, limit, model.AttemptStatusInProgress, a.StartedAt,
	).Scan(&a.AttemptNumber, &a.StartedAt)
	if err == nil {
		a.Status = model.AttemptStatusInProgress
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("insert attempt: %w", err)
	}

	n, err := r.CountByStudent(ctx, a.SessionID, a.StudentID)
	if err != nil {
		return fmt.Errorf("recount attempts: %w", err)
	}
	if n >= limit {
		return ErrAttemptLimitReached
	}
	return ErrAttemptNumberTaken
}

// GetByID retrieves an attempt by its ID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.StudentAttempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM student_attempts WHERE id = $1`, id))
}

// Submit transitions a from IN_PROGRESS to SUBMITTED and stores its answers in a
// single transaction. Returns ErrAttemptNotInProgress if another caller got there first;
// nothing is written in that case.
func (r *AttemptRepository) Submit(ctx context.Context, a *model.StudentAttempt, answers []model.AnswerRecord) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE student_attempts
			 SET status = $2, score = $3, total_points = $4, submitted_at = $5
			 WHERE id = $1 AND status = $6`,
			a.ID, model.AttemptStatusSubmitted, a.Score, a.TotalPoints, a.SubmittedAt, model.AttemptStatusInProgress,
		)
		if err != nil {
			return fmt.Errorf("transition attempt: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrAttemptNotInProgress
		}

		if len(answers) == 0 {
			return nil
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"student_answers"},
			[]string{"id", "attempt_id", "question_id", "selected_answer_ids", "score", "is_correct", "is_partially_correct", "needs_manual_grading"},
			pgx.CopyFromSlice(len(answers), func(i int) ([]any, error) {
				ans := answers[i]
				selected := ans.SelectedAnswerIDs
				if selected == nil {
					selected = []string{} // unanswered
				}
				return []any{ans.ID, ans.AttemptID, ans.QuestionID, selected, ans.Score, ans.IsCorrect, ans.IsPartiallyCorrect, ans.NeedsManualGrading}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy answers: %w", err)
		}
		return nil
	})
}

// ListBySession retrieves every attempt of a session.
func (r *AttemptRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.StudentAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM student_attempts
		 WHERE session_id = $1
		 ORDER BY student_id, attempt_number`, sessionID)
	if err != nil {
		return nil, err
	}
	return collectAttempts(rows)
}

// ListByStudent retrieves a student's attempts in a session, oldest first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, sessionID, studentID uuid.UUID) ([]model.StudentAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM student_attempts
		 WHERE session_id = $1 AND student_id = $2
		 ORDER BY attempt_number`, sessionID, studentID)
	if err != nil {
		return nil, err
	}
	return collectAttempts(rows)
}

// ListAnswers retrieves the graded answers of an attempt.
func (r *AttemptRepository) ListAnswers(ctx context.Context, attemptID uuid.UUID) ([]model.AnswerRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, attempt_id, question_id, selected_answer_ids, score, is_correct, is_partially_correct, needs_manual_grading
		 FROM student_answers WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.AnswerRecord
	for rows.Next() {
		var ans model.AnswerRecord
		if err := rows.Scan(&ans.ID, &ans.AttemptID, &ans.QuestionID, &ans.SelectedAnswerIDs, &ans.Score, &ans.IsCorrect, &ans.IsPartiallyCorrect, &ans.NeedsManualGrading); err != nil {
			return nil, err
		}
		answers = append(answers, ans)
	}
	return answers, rows.Err()
}

// ExpireStale moves IN_PROGRESS attempts of sessions that ended before cutoff to EXPIRED.
// The conditional update never touches an attempt that was submitted concurrently.
func (r *AttemptRepository) ExpireStale(ctx context.Context, cutoff time.Time) ([]model.StudentAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE student_attempts a
		 SET status = $2
		 FROM exam_sessions s
		 WHERE a.session_id = s.id AND a.status = $3 AND s.end_time < $1
		 RETURNING a.id, a.session_id, a.student_id, a.started_at, a.submitted_at, a.score, a.total_points, a.attempt_number, a.status`,
		cutoff, model.AttemptStatusExpired, model.AttemptStatusInProgress)
	if err != nil {
		return nil, err
	}
	return collectAttempts(rows)
}

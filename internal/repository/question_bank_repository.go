package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-assessment/internal/config"
	"github.com/stemsi/exstem-assessment/internal/model"
)

// QuestionBankRepository is the read-only grading view of the question bank.
// Lookups go through Redis when a client is configured; the database stays the
// source of truth and any cache failure falls back to it.
type QuestionBankRepository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

// NewQuestionBankRepository creates a new QuestionBankRepository. rdb may be nil.
func NewQuestionBankRepository(pool *pgxpool.Pool, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *QuestionBankRepository {
	return &QuestionBankRepository{
		pool: pool,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "question_bank").Logger(),
	}
}

// ListByExam retrieves all questions of an exam, ordered by order_num.
func (r *QuestionBankRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	key := config.CacheKey.ExamQuestionsKey(examID)

	if r.rdb != nil {
		data, err := r.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var questions []model.Question
			if err := json.Unmarshal(data, &questions); err == nil {
				return questions, nil
			}
			r.log.Warn().Str("exam_id", examID.String()).Msg("Discarding corrupt question cache entry")
		case !errors.Is(err, redis.Nil):
			r.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Question cache read failed")
		}
	}

	questions, err := r.listFromDB(ctx, examID)
	if err != nil {
		return nil, err
	}
	r.writeCache(ctx, examID, questions)
	return questions, nil
}

// ListByExamFresh reads the questions from PostgreSQL, skipping the cache, and
// replaces the cached snapshot with what it read. Grading uses it so an answer
// key fixed in the bank applies immediately.
func (r *QuestionBankRepository) ListByExamFresh(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	questions, err := r.listFromDB(ctx, examID)
	if err != nil {
		return nil, err
	}
	r.writeCache(ctx, examID, questions)
	return questions, nil
}

func (r *QuestionBankRepository) writeCache(ctx context.Context, examID uuid.UUID, questions []model.Question) {
	if r.rdb == nil || len(questions) == 0 {
		return
	}
	payload, err := json.Marshal(questions)
	if err == nil {
		err = r.rdb.Set(ctx, config.CacheKey.ExamQuestionsKey(examID), payload, r.ttl).Err()
	}
	if err != nil {
		r.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Question cache write failed")
	}
}

// Invalidate drops the cached snapshot of an exam's questions.
func (r *QuestionBankRepository) Invalidate(ctx context.Context, examID uuid.UUID) error {
	if r.rdb == nil {
		return nil
	}
	return r.rdb.Del(ctx, config.CacheKey.ExamQuestionsKey(examID)).Err()
}

func (r *QuestionBankRepository) listFromDB(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, points, question_type, option_ids, correct_answer_ids, accepted_answers, order_num
		 FROM questions WHERE exam_id = $1
		 ORDER BY order_num, id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Points, &q.Type, &q.OptionIDs, &q.CorrectAnswerIDs, &q.AcceptedAnswers, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

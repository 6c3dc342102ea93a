package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-assessment/internal/apperror"
	"github.com/stemsi/exstem-assessment/internal/events"
	"github.com/stemsi/exstem-assessment/internal/metrics"
	"github.com/stemsi/exstem-assessment/internal/model"
	"github.com/stemsi/exstem-assessment/internal/repository"
	"github.com/stemsi/exstem-assessment/internal/results"
	"github.com/stemsi/exstem-assessment/internal/scoring"
	"github.com/stemsi/exstem-assessment/internal/shuffle"
)

// AttemptService runs the attempt state machine:
// IN_PROGRESS → SUBMITTED on Submit, IN_PROGRESS → EXPIRED on the sweep.
// Terminal states have no outgoing transitions.
type AttemptService struct {
	sessions     SessionStore
	attempts     AttemptStore
	questions    QuestionBank
	classes      ClassDirectory
	events       EventPublisher
	log          zerolog.Logger
	startRetries int
	now          func() time.Time
}

// NewAttemptService creates a new AttemptService. startRetries bounds how often
// Start retries after losing the attempt-number race.
func NewAttemptService(
	sessions SessionStore,
	attempts AttemptStore,
	questions QuestionBank,
	classes ClassDirectory,
	publisher EventPublisher,
	log zerolog.Logger,
	startRetries int,
) *AttemptService {
	if startRetries < 0 {
		startRetries = 0
	}
	return &AttemptService{
		sessions:     sessions,
		attempts:     attempts,
		questions:    questions,
		classes:      classes,
		events:       publisher,
		log:          log.With().Str("component", "attempt_service").Logger(),
		startRetries: startRetries,
		now:          time.Now,
	}
}

// Start opens a new attempt for actor in a session and returns its question order.
//
// Checks run in order: the session exists and is active, the actor is enrolled
// (teachers and admins are exempt), now lies inside the window, and the attempt
// limit is not reached. Questions are loaded before the insert so a question
// bank failure never leaves an orphaned attempt behind.
func (s *AttemptService) Start(ctx context.Context, sessionID uuid.UUID, actor model.Actor) (*model.StartedAttempt, error) {
	attempt, order, err := s.start(ctx, sessionID, actor)
	metrics.AttemptsStarted.WithLabelValues(startOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.Event{
		Type:          events.TypeAttemptStarted,
		SessionID:     sessionID,
		AttemptID:     attempt.ID,
		StudentID:     attempt.StudentID,
		AttemptNumber: attempt.AttemptNumber,
		OccurredAt:    attempt.StartedAt,
	})
	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("attempt_id", attempt.ID.String()).
		Int("attempt_number", attempt.AttemptNumber).
		Msg("Attempt started")

	return &model.StartedAttempt{
		AttemptID:     attempt.ID,
		SessionID:     sessionID,
		AttemptNumber: attempt.AttemptNumber,
		StartedAt:     attempt.StartedAt,
		QuestionOrder: order,
	}, nil
}

func (s *AttemptService) start(ctx context.Context, sessionID uuid.UUID, actor model.Actor) (*model.StudentAttempt, []model.QuestionOrder, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, lookupErr(err, "session", sessionID)
	}
	if !session.IsActive {
		return nil, nil, apperror.ErrSessionNotActive
	}

	if actor.Role == model.RoleStudent {
		enrolled, err := s.classes.IsEnrolled(ctx, session.ClassID, actor.UserID)
		if err != nil {
			return nil, nil, fmt.Errorf("check enrollment: %w", err)
		}
		if !enrolled {
			return nil, nil, apperror.ErrNotEnrolled
		}
	}

	now := s.now().UTC()
	if !session.InWindow(now) {
		return nil, nil, apperror.ErrSessionNotActive
	}

	limit := session.MaxAttempts()
	count, err := s.attempts.CountByStudent(ctx, sessionID, actor.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("count attempts: %w", err)
	}
	if count >= limit {
		return nil, nil, apperror.ErrAttemptLimitExceeded
	}

	questions, err := s.questions.ListByExam(ctx, session.ExamID)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}

	attempt := &model.StudentAttempt{
		ID:        uuid.New(),
		SessionID: sessionID,
		StudentID: actor.UserID,
		StartedAt: now,
		Status:    model.AttemptStatusInProgress,
	}
	for try := 0; ; try++ {
		err := s.attempts.CreateNext(ctx, attempt, limit)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, repository.ErrAttemptLimitReached):
			return nil, nil, apperror.ErrAttemptLimitExceeded
		case errors.Is(err, repository.ErrAttemptNumberTaken):
			if try >= s.startRetries {
				return nil, nil, apperror.ErrStartConflict
			}
			metrics.StartConflictRetries.Inc()
			s.log.Debug().Str("session_id", sessionID.String()).Int("try", try+1).Msg("Attempt number taken, retrying")
		default:
			return nil, nil, fmt.Errorf("create attempt: %w", err)
		}
	}

	return attempt, shuffle.Order(attempt.ID, questions, session.ShufflePolicy()), nil
}

// Submit grades answers and moves the attempt to SUBMITTED in one transaction.
//
// Every exam question counts toward the total; unanswered ones are stored with
// score 0. An answer for a question outside the exam, or two answers for the
// same question, reject the whole submission. Concurrent submits race on the
// conditional status update and exactly one wins.
func (s *AttemptService) Submit(ctx context.Context, sessionID, attemptID, studentID uuid.UUID, answers []model.SubmittedAnswer) (*results.AttemptResult, error) {
	res, err := s.submit(ctx, sessionID, attemptID, studentID, answers)
	metrics.AttemptsSubmitted.WithLabelValues(submitOutcome(err)).Inc()
	return res, err
}

func (s *AttemptService) submit(ctx context.Context, sessionID, attemptID, studentID uuid.UUID, answers []model.SubmittedAnswer) (*results.AttemptResult, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, lookupErr(err, "attempt", attemptID)
	}
	if attempt.StudentID != studentID {
		return nil, apperror.ErrNotAttemptOwner
	}
	if attempt.SessionID != sessionID {
		return nil, apperror.NotFound("attempt", attemptID)
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, apperror.ErrAlreadySubmitted
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, lookupErr(err, "session", sessionID)
	}
	questions, err := s.questions.ListByExamFresh(ctx, session.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	submitted, err := indexAnswers(questions, answers)
	if err != nil {
		return nil, err
	}

	records := make([]model.AnswerRecord, 0, len(questions))
	var score, total float64
	for _, q := range questions {
		selected := scoring.NormalizeIDs(submitted[q.ID])
		graded, err := scoring.Score(q, selected, session.AllowPartialScoring)
		if err != nil {
			return nil, err
		}
		total += q.Points
		score += graded.Score
		records = append(records, model.AnswerRecord{
			ID:                 uuid.New(),
			AttemptID:          attemptID,
			QuestionID:         q.ID,
			SelectedAnswerIDs:  selected,
			Score:              graded.Score,
			IsCorrect:          graded.IsCorrect,
			IsPartiallyCorrect: graded.IsPartiallyCorrect,
			NeedsManualGrading: graded.NeedsManualGrading,
		})
	}

	submittedAt := s.now().UTC()
	attempt.Score = scoring.Round(score, 2)
	attempt.TotalPoints = scoring.Round(total, 2)
	attempt.SubmittedAt = &submittedAt

	if err := s.attempts.Submit(ctx, attempt, records); err != nil {
		if errors.Is(err, repository.ErrAttemptNotInProgress) {
			return nil, apperror.ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("submit attempt: %w", err)
	}
	attempt.Status = model.AttemptStatusSubmitted

	result := results.ComputeAttemptResult(*attempt)
	metrics.ScorePercentage.Observe(result.ScorePercentage)
	s.events.Publish(ctx, events.Event{
		Type:            events.TypeAttemptSubmitted,
		SessionID:       sessionID,
		AttemptID:       attemptID,
		StudentID:       studentID,
		AttemptNumber:   attempt.AttemptNumber,
		Score:           result.Score,
		TotalPoints:     result.TotalPoints,
		ScorePercentage: result.ScorePercentage,
		OccurredAt:      submittedAt,
	})
	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Float64("score", result.Score).
		Float64("total_points", result.TotalPoints).
		Msg("Attempt submitted")

	return &result, nil
}

// indexAnswers maps submitted answers by question, rejecting unknown and
// repeated question IDs.
func indexAnswers(questions []model.Question, answers []model.SubmittedAnswer) (map[uuid.UUID][]string, error) {
	known := make(map[uuid.UUID]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}

	fields := make(map[string]string)
	out := make(map[uuid.UUID][]string, len(answers))
	for i, a := range answers {
		key := fmt.Sprintf("answers[%d].question_id", i)
		if _, ok := known[a.QuestionID]; !ok {
			fields[key] = "question does not belong to this exam"
			continue
		}
		if _, dup := out[a.QuestionID]; dup {
			fields[key] = "question answered more than once"
			continue
		}
		ids := a.SelectedAnswerIDs
		if ids == nil {
			ids = []string{}
		}
		out[a.QuestionID] = ids
	}
	if len(fields) > 0 {
		return nil, apperror.Validation("invalid answers", fields)
	}
	return out, nil
}

// GetAttempt returns an attempt with the same question order Start produced.
// Students may read their own attempts; teachers those of classes they own.
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID uuid.UUID, actor model.Actor) (*model.AttemptPaper, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, lookupErr(err, "attempt", attemptID)
	}
	session, err := s.sessions.GetByID(ctx, attempt.SessionID)
	if err != nil {
		return nil, lookupErr(err, "session", attempt.SessionID)
	}

	if actor.Role == model.RoleStudent {
		if attempt.StudentID != actor.UserID {
			return nil, apperror.ErrNotAttemptOwner
		}
	} else {
		class, err := s.classes.GetClass(ctx, session.ClassID)
		if err != nil {
			return nil, lookupErr(err, "class", session.ClassID)
		}
		if err := authorizeClassTeacher(actor, class); err != nil {
			return nil, err
		}
	}

	questions, err := s.questions.ListByExam(ctx, session.ExamID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	paper := &model.AttemptPaper{
		Attempt:       *attempt,
		QuestionOrder: shuffle.Order(attempt.ID, questions, session.ShufflePolicy()),
	}
	if attempt.Status == model.AttemptStatusSubmitted {
		paper.Answers, err = s.attempts.ListAnswers(ctx, attemptID)
		if err != nil {
			return nil, fmt.Errorf("list answers: %w", err)
		}
	}
	return paper, nil
}

// ListMyAttempts returns a student's attempts in a session, oldest first.
func (s *AttemptService) ListMyAttempts(ctx context.Context, sessionID, studentID uuid.UUID) ([]results.AttemptResult, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, lookupErr(err, "session", sessionID)
	}
	attempts, err := s.attempts.ListByStudent(ctx, sessionID, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	out := make([]results.AttemptResult, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, results.ComputeAttemptResult(a))
	}
	return out, nil
}

// ExpireStale moves IN_PROGRESS attempts of sessions that ended more than grace
// ago to EXPIRED. Expired attempts stay unscored.
func (s *AttemptService) ExpireStale(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := s.now().UTC().Add(-grace)
	expired, err := s.attempts.ExpireStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire attempts: %w", err)
	}

	for _, a := range expired {
		s.events.Publish(ctx, events.Event{
			Type:          events.TypeAttemptExpired,
			SessionID:     a.SessionID,
			AttemptID:     a.ID,
			StudentID:     a.StudentID,
			AttemptNumber: a.AttemptNumber,
		})
	}
	metrics.AttemptsExpired.Add(float64(len(expired)))
	return len(expired), nil
}

func startOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperror.ErrAttemptLimitExceeded):
		return "limit"
	case errors.Is(err, apperror.ErrSessionNotActive):
		return "window"
	case errors.Is(err, apperror.ErrStartConflict):
		return "conflict"
	case apperror.KindOf(err) != apperror.KindInternal:
		return "rejected"
	default:
		return "error"
	}
}

func submitOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperror.ErrAlreadySubmitted):
		return "already_submitted"
	case apperror.KindOf(err) == apperror.KindValidation:
		return "invalid"
	case apperror.KindOf(err) != apperror.KindInternal:
		return "rejected"
	default:
		return "error"
	}
}

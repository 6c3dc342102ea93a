package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-assessment/internal/apperror"
	"github.com/stemsi/exstem-assessment/internal/events"
	"github.com/stemsi/exstem-assessment/internal/model"
)

// SessionService handles the administration of exam sessions.
type SessionService struct {
	sessions  SessionStore
	classes   ClassDirectory
	questions QuestionBank
	events    EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessions SessionStore,
	classes ClassDirectory,
	questions QuestionBank,
	publisher EventPublisher,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions:  sessions,
		classes:   classes,
		questions: questions,
		events:    publisher,
		log:       log.With().Str("component", "session_service").Logger(),
		now:       time.Now,
	}
}

// ValidateParams checks the window and retry policy of a session.
func ValidateParams(p model.SessionParams) error {
	fields := make(map[string]string)
	if p.ExamID == uuid.Nil {
		fields["exam_id"] = "exam_id is a required field"
	}
	if p.Window.Start.IsZero() {
		fields["start_time"] = "start_time is a required field"
	}
	if p.Window.End.IsZero() {
		fields["end_time"] = "end_time is a required field"
	}
	if !p.Window.Start.IsZero() && !p.Window.End.IsZero() && !p.Window.Start.Before(p.Window.End) {
		fields["end_time"] = "end_time must be after start_time"
	}
	if p.Retry.Times < 0 {
		fields["retry_times"] = "retry_times must not be negative"
	} else if p.Retry.Retryable && p.Retry.Times < 1 {
		fields["retry_times"] = "retry_times must be at least 1 when is_retryable is set"
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid session parameters", fields)
	}
	return nil
}

// Create schedules a new active session for a class the actor teaches.
func (s *SessionService) Create(ctx context.Context, actor model.Actor, classID uuid.UUID, p model.SessionParams) (*model.SessionSchedule, error) {
	if err := ValidateParams(p); err != nil {
		return nil, err
	}

	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return nil, lookupErr(err, "class", classID)
	}
	if err := authorizeClassTeacher(actor, class); err != nil {
		return nil, err
	}
	if !class.IsActive {
		return nil, apperror.ErrClassInactive
	}
	if err := s.ensureExamHasQuestions(ctx, p.ExamID); err != nil {
		return nil, err
	}

	session := &model.SessionSchedule{
		ClassID:   classID,
		IsActive:  true,
		CreatedBy: actor.UserID,
	}
	session.Apply(p)

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("class_id", classID.String()).
		Str("exam_id", p.ExamID.String()).
		Msg("Session created")

	return session, nil
}

// Update replaces the parameters of a session. The exam cannot be swapped once
// attempts exist, since their answers reference its questions.
func (s *SessionService) Update(ctx context.Context, actor model.Actor, sessionID uuid.UUID, p model.SessionParams) (*model.SessionSchedule, error) {
	if err := ValidateParams(p); err != nil {
		return nil, err
	}

	session, err := s.loadOwned(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}

	if p.ExamID != session.ExamID {
		n, err := s.sessions.CountAttempts(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("count attempts: %w", err)
		}
		if n > 0 {
			return nil, apperror.ErrSessionHasAttempts
		}
		if err := s.ensureExamHasQuestions(ctx, p.ExamID); err != nil {
			return nil, err
		}
	}

	session.Apply(p)
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, lookupErr(err, "session", sessionID)
	}

	s.events.Publish(ctx, events.Event{Type: events.TypeSessionUpdated, SessionID: sessionID})
	return session, nil
}

// SetActive opens or closes a session for new attempts.
func (s *SessionService) SetActive(ctx context.Context, actor model.Actor, sessionID uuid.UUID, active bool) error {
	if _, err := s.loadOwned(ctx, actor, sessionID); err != nil {
		return err
	}
	if err := s.sessions.SetActive(ctx, sessionID, active); err != nil {
		return lookupErr(err, "session", sessionID)
	}

	s.events.Publish(ctx, events.Event{Type: events.TypeSessionUpdated, SessionID: sessionID, IsActive: &active})
	return nil
}

// Delete removes a session together with its attempts and answers.
func (s *SessionService) Delete(ctx context.Context, actor model.Actor, sessionID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, actor, sessionID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return lookupErr(err, "session", sessionID)
	}

	s.log.Info().Str("session_id", sessionID.String()).Msg("Session deleted")
	return nil
}

// Get returns a session with its derived status flags.
func (s *SessionService) Get(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.SessionView, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, lookupErr(err, "session", sessionID)
	}
	class, err := s.classes.GetClass(ctx, session.ClassID)
	if err != nil {
		return nil, lookupErr(err, "class", session.ClassID)
	}
	if err := authorizeClassViewer(ctx, s.classes, actor, class); err != nil {
		return nil, err
	}

	n, err := s.sessions.CountAttempts(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	view := model.NewSessionView(*session, s.now(), n)
	return &view, nil
}

// ListByClass returns the sessions of a class visible to actor.
func (s *SessionService) ListByClass(ctx context.Context, actor model.Actor, classID uuid.UUID) ([]model.SessionView, error) {
	class, err := s.classes.GetClass(ctx, classID)
	if err != nil {
		return nil, lookupErr(err, "class", classID)
	}
	if err := authorizeClassViewer(ctx, s.classes, actor, class); err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListByClass(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	now := s.now()
	views := make([]model.SessionView, 0, len(sessions))
	for _, sess := range sessions {
		// Students only see sessions that are open to them.
		if actor.Role == model.RoleStudent && !sess.IsActive {
			continue
		}
		views = append(views, model.NewSessionView(sess, now, 0))
	}
	return views, nil
}

// ListForStudent returns the active sessions of every active class the student
// is enrolled in, newest first.
func (s *SessionService) ListForStudent(ctx context.Context, actor model.Actor) ([]model.SessionView, error) {
	if actor.Role != model.RoleStudent {
		return nil, apperror.ErrStudentAccessOnly
	}
	sessions, err := s.sessions.ListActiveForStudent(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list student sessions: %w", err)
	}

	now := s.now()
	views := make([]model.SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, model.NewSessionView(sess, now, 0))
	}
	return views, nil
}

// loadOwned fetches a session and checks that actor may administer it.
func (s *SessionService) loadOwned(ctx context.Context, actor model.Actor, sessionID uuid.UUID) (*model.SessionSchedule, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, lookupErr(err, "session", sessionID)
	}
	class, err := s.classes.GetClass(ctx, session.ClassID)
	if err != nil {
		return nil, lookupErr(err, "class", session.ClassID)
	}
	if err := authorizeClassTeacher(actor, class); err != nil {
		return nil, err
	}
	return session, nil
}

// ensureExamHasQuestions refreshes the cached question bank of an exam and
// rejects exams without questions.
func (s *SessionService) ensureExamHasQuestions(ctx context.Context, examID uuid.UUID) error {
	if err := s.questions.Invalidate(ctx, examID); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Question cache invalidation failed")
	}
	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return apperror.ErrExamHasNoQuestions
	}
	return nil
}

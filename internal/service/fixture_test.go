package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-assessment/internal/model"
)

var (
	windowStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
)

type fixture struct {
	sessions  *fakeSessions
	attempts  *fakeAttempts
	questions *fakeQuestions
	classes   *fakeClasses
	pub       *recordingPublisher

	attemptSvc *AttemptService
	sessionSvc *SessionService
	resultsSvc *ResultsService

	teacher model.Actor
	student model.Actor
	class   model.Classroom
	examID  uuid.UUID
	multiQ  model.Question
	singleQ model.Question
	essayQ  model.Question

	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		attempts:  newFakeAttempts(),
		questions: newFakeQuestions(),
		classes:   newFakeClasses(),
		pub:       &recordingPublisher{},
		teacher:   model.Actor{UserID: uuid.New(), Role: model.RoleTeacher},
		student:   model.Actor{UserID: uuid.New(), Role: model.RoleStudent},
		examID:    uuid.New(),
		clock:     windowStart.Add(30 * time.Minute),
	}
	f.sessions = newFakeSessions(f.attempts)
	f.attempts.sessions = f.sessions
	f.sessions.classes = f.classes

	f.class = model.Classroom{ID: uuid.New(), TeacherID: f.teacher.UserID, IsActive: true}
	f.classes.add(f.class, f.student.UserID)

	f.multiQ = model.Question{
		ID: uuid.New(), ExamID: f.examID, Type: model.QuestionTypeMultipleAnswer, Points: 4, OrderNum: 1,
		OptionIDs: []string{"A", "B", "C", "D"}, CorrectAnswerIDs: []string{"A", "B"},
	}
	f.singleQ = model.Question{
		ID: uuid.New(), ExamID: f.examID, Type: model.QuestionTypeMultipleChoice, Points: 2, OrderNum: 2,
		OptionIDs: []string{"A", "B", "C"}, CorrectAnswerIDs: []string{"B"},
	}
	f.essayQ = model.Question{
		ID: uuid.New(), ExamID: f.examID, Type: model.QuestionTypeEssay, Points: 4, OrderNum: 3,
	}
	f.questions.byExam[f.examID] = []model.Question{f.multiQ, f.singleQ, f.essayQ}

	now := func() time.Time { return f.clock }
	log := zerolog.Nop()

	f.attemptSvc = NewAttemptService(f.sessions, f.attempts, f.questions, f.classes, f.pub, log, 3)
	f.attemptSvc.now = now
	f.sessionSvc = NewSessionService(f.sessions, f.classes, f.questions, f.pub, log)
	f.sessionSvc.now = now
	f.resultsSvc = NewResultsService(f.sessions, f.attempts, f.classes)
	return f
}

// addSession stores an active, non-retryable session over the default window.
func (f *fixture) addSession(mutate func(s *model.SessionSchedule)) model.SessionSchedule {
	s := model.SessionSchedule{
		ID:          uuid.New(),
		ClassID:     f.class.ID,
		ExamID:      f.examID,
		StartTime:   windowStart,
		EndTime:     windowEnd,
		RetryTimes:  1,
		IsActive:    true,
		CreatedBy:   f.teacher.UserID,
		IsRetryable: false,
	}
	if mutate != nil {
		mutate(&s)
	}
	f.sessions.put(s)
	return s
}

// enroll adds a new student to the fixture class.
func (f *fixture) enroll() model.Actor {
	a := model.Actor{UserID: uuid.New(), Role: model.RoleStudent}
	f.classes.enrolled[f.class.ID][a.UserID] = true
	return a
}

package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/exstem-assessment/internal/events"
	"github.com/stemsi/exstem-assessment/internal/model"
	"github.com/stemsi/exstem-assessment/internal/repository"
)

// ─── Sessions ───────────────────────────────────────────────────────────────

type fakeSessions struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]model.SessionSchedule
	attempts *fakeAttempts
	classes  *fakeClasses
}

func newFakeSessions(attempts *fakeAttempts) *fakeSessions {
	return &fakeSessions{rows: map[uuid.UUID]model.SessionSchedule{}, attempts: attempts}
}

func (f *fakeSessions) put(s model.SessionSchedule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[s.ID] = s
}

func (f *fakeSessions) Create(_ context.Context, s *model.SessionSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id uuid.UUID) (*model.SessionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (f *fakeSessions) Update(_ context.Context, s *model.SessionSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[s.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.UpdatedAt = time.Now()
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeSessions) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.IsActive = active
	f.rows[id] = s
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.rows, id)
	if f.attempts != nil {
		f.attempts.deleteSession(id)
	}
	return nil
}

func (f *fakeSessions) ListByClass(_ context.Context, classID uuid.UUID) ([]model.SessionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.SessionSchedule
	for _, s := range f.rows {
		if s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out, nil
}

// ListActiveForStudent resolves enrollments through classes the way the SQL
// subquery does.
func (f *fakeSessions) ListActiveForStudent(_ context.Context, studentID uuid.UUID) ([]model.SessionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.SessionSchedule
	for _, s := range f.rows {
		if !s.IsActive || f.classes == nil {
			continue
		}
		c, ok := f.classes.classes[s.ClassID]
		if ok && c.IsActive && f.classes.enrolled[s.ClassID][studentID] {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b model.SessionSchedule) int { return b.StartTime.Compare(a.StartTime) })
	return out, nil
}

func (f *fakeSessions) CountAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	if f.attempts == nil {
		return 0, nil
	}
	list, _ := f.attempts.ListBySession(ctx, id)
	return len(list), nil
}

// ─── Attempts ───────────────────────────────────────────────────────────────

// fakeAttempts mirrors the repository's guarded insert and conditional update
// under a single mutex.
type fakeAttempts struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]model.StudentAttempt
	answers map[uuid.UUID][]model.AnswerRecord

	// numberTaken makes the next N CreateNext calls lose the insert race.
	numberTaken int
	// beforeSubmit runs before the conditional update, outside the lock.
	beforeSubmit func()

	sessions *fakeSessions
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{
		rows:    map[uuid.UUID]model.StudentAttempt{},
		answers: map[uuid.UUID][]model.AnswerRecord{},
	}
}

func (f *fakeAttempts) deleteSession(sessionID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, a := range f.rows {
		if a.SessionID == sessionID {
			delete(f.rows, id)
			delete(f.answers, id)
		}
	}
}

func (f *fakeAttempts) CountByStudent(_ context.Context, sessionID, studentID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.rows {
		if a.SessionID == sessionID && a.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func (f *fakeAttempts) CreateNext(_ context.Context, a *model.StudentAttempt, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.numberTaken > 0 {
		f.numberTaken--
		return repository.ErrAttemptNumberTaken
	}
	maxNum := 0
	for _, r := range f.rows {
		if r.SessionID == a.SessionID && r.StudentID == a.StudentID && r.AttemptNumber > maxNum {
			maxNum = r.AttemptNumber
		}
	}
	if maxNum >= limit {
		return repository.ErrAttemptLimitReached
	}
	a.AttemptNumber = maxNum + 1
	a.Status = model.AttemptStatusInProgress
	f.rows[a.ID] = *a
	return nil
}

func (f *fakeAttempts) GetByID(_ context.Context, id uuid.UUID) (*model.StudentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (f *fakeAttempts) Submit(_ context.Context, a *model.StudentAttempt, answers []model.AnswerRecord) error {
	if f.beforeSubmit != nil {
		f.beforeSubmit()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.rows[a.ID]
	if !ok || cur.Status != model.AttemptStatusInProgress {
		return repository.ErrAttemptNotInProgress
	}
	cur.Status = model.AttemptStatusSubmitted
	cur.Score = a.Score
	cur.TotalPoints = a.TotalPoints
	cur.SubmittedAt = a.SubmittedAt
	f.rows[a.ID] = cur
	f.answers[a.ID] = slices.Clone(answers)
	return nil
}

func (f *fakeAttempts) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.StudentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StudentAttempt
	for _, a := range f.rows {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttempts) ListByStudent(_ context.Context, sessionID, studentID uuid.UUID) ([]model.StudentAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StudentAttempt
	for _, a := range f.rows {
		if a.SessionID == sessionID && a.StudentID == studentID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b model.StudentAttempt) int { return a.AttemptNumber - b.AttemptNumber })
	return out, nil
}

func (f *fakeAttempts) ListAnswers(_ context.Context, attemptID uuid.UUID) ([]model.AnswerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.answers[attemptID]), nil
}

// ExpireStale joins against the session table the way the SQL does. Session
// end times are copied first so the two locks are never held together.
func (f *fakeAttempts) ExpireStale(_ context.Context, cutoff time.Time) ([]model.StudentAttempt, error) {
	ends := map[uuid.UUID]time.Time{}
	if f.sessions != nil {
		f.sessions.mu.Lock()
		for id, s := range f.sessions.rows {
			ends[id] = s.EndTime
		}
		f.sessions.mu.Unlock()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StudentAttempt
	for id, a := range f.rows {
		end, ok := ends[a.SessionID]
		if !ok || a.Status != model.AttemptStatusInProgress || !end.Before(cutoff) {
			continue
		}
		a.Status = model.AttemptStatusExpired
		f.rows[id] = a
		out = append(out, a)
	}
	return out, nil
}

// ─── Question bank ──────────────────────────────────────────────────────────

// fakeQuestions treats byExam as the database. With caching set, ListByExam
// serves a snapshot taken on first read, like the Redis cache-aside.
type fakeQuestions struct {
	mu          sync.Mutex
	byExam      map[uuid.UUID][]model.Question
	err         error
	invalidated []uuid.UUID

	caching bool
	cached  map[uuid.UUID][]model.Question
}

func newFakeQuestions() *fakeQuestions {
	return &fakeQuestions{
		byExam: map[uuid.UUID][]model.Question{},
		cached: map[uuid.UUID][]model.Question{},
	}
}

func (f *fakeQuestions) ListByExam(_ context.Context, examID uuid.UUID) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if !f.caching {
		return cloneQuestions(f.byExam[examID]), nil
	}
	if snap, ok := f.cached[examID]; ok {
		return cloneQuestions(snap), nil
	}
	f.cached[examID] = cloneQuestions(f.byExam[examID])
	return cloneQuestions(f.byExam[examID]), nil
}

func (f *fakeQuestions) ListByExamFresh(_ context.Context, examID uuid.UUID) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.caching {
		f.cached[examID] = cloneQuestions(f.byExam[examID])
	}
	return cloneQuestions(f.byExam[examID]), nil
}

func (f *fakeQuestions) Invalidate(_ context.Context, examID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, examID)
	delete(f.cached, examID)
	return nil
}

// cloneQuestions copies the answer keys too, so edits to the source never
// reach a snapshot.
func cloneQuestions(qs []model.Question) []model.Question {
	out := make([]model.Question, len(qs))
	for i, q := range qs {
		q.OptionIDs = slices.Clone(q.OptionIDs)
		q.CorrectAnswerIDs = slices.Clone(q.CorrectAnswerIDs)
		q.AcceptedAnswers = slices.Clone(q.AcceptedAnswers)
		out[i] = q
	}
	return out
}

// ─── Classes ────────────────────────────────────────────────────────────────

type fakeClasses struct {
	classes  map[uuid.UUID]model.Classroom
	enrolled map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeClasses() *fakeClasses {
	return &fakeClasses{
		classes:  map[uuid.UUID]model.Classroom{},
		enrolled: map[uuid.UUID]map[uuid.UUID]bool{},
	}
}

func (f *fakeClasses) add(c model.Classroom, students ...uuid.UUID) {
	f.classes[c.ID] = c
	m := map[uuid.UUID]bool{}
	for _, s := range students {
		m[s] = true
	}
	f.enrolled[c.ID] = m
}

func (f *fakeClasses) GetClass(_ context.Context, id uuid.UUID) (*model.Classroom, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (f *fakeClasses) IsEnrolled(_ context.Context, classID, studentID uuid.UUID) (bool, error) {
	return f.enrolled[classID][studentID], nil
}

func (f *fakeClasses) CountEnrolled(_ context.Context, classID uuid.UUID) (int, error) {
	return len(f.enrolled[classID]), nil
}

// ─── Events ─────────────────────────────────────────────────────────────────

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

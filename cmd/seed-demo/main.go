// Command seed-demo fills a development database with one class, its
// students, an exam's questions and an open session, then prints tokens.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stemsi/exstem-assessment/internal/config"
	"github.com/stemsi/exstem-assessment/internal/database"
	"github.com/stemsi/exstem-assessment/internal/events"
	"github.com/stemsi/exstem-assessment/internal/logger"
	"github.com/stemsi/exstem-assessment/internal/model"
	"github.com/stemsi/exstem-assessment/internal/repository"
	"github.com/stemsi/exstem-assessment/internal/service"
)

const studentCount = 10

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	teacherID := uuid.New()
	classID := uuid.New()
	examID := uuid.New()
	students := make([]uuid.UUID, studentCount)
	for i := range students {
		students[i] = uuid.New()
	}

	fmt.Println("=== Seeding demo class ===")

	err = database.WithTx(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO classrooms (id, name, teacher_id, is_active) VALUES ($1, $2, $3, TRUE)`,
			classID, "XII TKJ 2", teacherID,
		); err != nil {
			return fmt.Errorf("insert class: %w", err)
		}

		rows := make([][]any, len(students))
		for i, id := range students {
			rows[i] = []any{classID, id, "ACTIVE"}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"class_enrollments"},
			[]string{"class_id", "student_id", "status"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("enroll students: %w", err)
		}

		batch := &pgx.Batch{}
		for i, q := range demoQuestions() {
			batch.Queue(
				`INSERT INTO questions (exam_id, question_type, points, option_ids, correct_answer_ids, accepted_answers, order_num)
				 VALUES ($1, $2, $3, COALESCE($4::text[], '{}'), COALESCE($5::text[], '{}'), COALESCE($6::text[], '{}'), $7)`,
				examID, q.Type, q.Points, q.OptionIDs, q.CorrectAnswerIDs, q.AcceptedAnswers, i+1,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	// The session goes through the service so it is validated like any API call.
	sessions := service.NewSessionService(
		repository.NewSessionRepository(pool),
		repository.NewClassRepository(pool),
		repository.NewQuestionBankRepository(pool, nil, cfg.QuestionCacheTTL, log),
		events.Nop{},
		log,
	)
	now := time.Now().UTC()
	session, err := sessions.Create(ctx, model.Actor{UserID: teacherID, Role: model.RoleTeacher}, classID, model.SessionParams{
		ExamID:  examID,
		Window:  model.TimeWindow{Start: now.Add(-time.Minute), End: now.Add(2 * time.Hour)},
		Retry:   model.RetryPolicy{Times: 2, Retryable: true},
		Shuffle: model.ShufflePolicy{Questions: true, Answers: true},
		Scoring: model.ScoringPolicy{AllowPartial: true},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session")
	}

	identity := service.NewIdentityService(cfg.JWTSecret)
	issue := func(id uuid.UUID, role model.Role) string {
		token, err := identity.IssueToken(model.Actor{UserID: id, Role: role}, 8*time.Hour)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to sign token")
		}
		return token
	}

	fmt.Printf("Class:   %s\n", classID)
	fmt.Printf("Exam:    %s\n", examID)
	fmt.Printf("Session: %s\n\n", session.ID)
	fmt.Printf("Teacher %s\n  %s\n", teacherID, issue(teacherID, model.RoleTeacher))
	for i, id := range students {
		fmt.Printf("Student %02d %s\n  %s\n", i+1, id, issue(id, model.RoleStudent))
	}
}

func demoQuestions() []model.Question {
	return []model.Question{
		{Type: model.QuestionTypeMultipleChoice, Points: 2, OptionIDs: []string{"a", "b", "c", "d"}, CorrectAnswerIDs: []string{"b"}},
		{Type: model.QuestionTypeTrueFalse, Points: 1, OptionIDs: []string{"true", "false"}, CorrectAnswerIDs: []string{"true"}},
		{Type: model.QuestionTypeMultipleAnswer, Points: 4, OptionIDs: []string{"a", "b", "c", "d"}, CorrectAnswerIDs: []string{"a", "c"}},
		{Type: model.QuestionTypeFillInTheBlank, Points: 2, AcceptedAnswers: []string{"jakarta"}},
		{Type: model.QuestionTypeEssay, Points: 5},
	}
}

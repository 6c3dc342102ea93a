package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-assessment/internal/model"
)

// ClassRepository is the read-only view of classes and their enrollments.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

// GetClass retrieves a class by its ID.
func (r *ClassRepository) GetClass(ctx context.Context, id uuid.UUID) (*model.Classroom, error) {
	c := &model.Classroom{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, teacher_id, is_active FROM classrooms WHERE id = $1`, id,
	).Scan(&c.ID, &c.TeacherID, &c.IsActive)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// IsEnrolled reports whether a student has an active enrollment in a class.
func (r *ClassRepository) IsEnrolled(ctx context.Context, classID, studentID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM class_enrollments
			WHERE class_id = $1 AND student_id = $2 AND status = 'ACTIVE'
		 )`, classID, studentID,
	).Scan(&ok)
	return ok, err
}

// CountEnrolled returns the number of active enrollments in a class.
func (r *ClassRepository) CountEnrolled(ctx context.Context, classID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM class_enrollments WHERE class_id = $1 AND status = 'ACTIVE'`, classID,
	).Scan(&n)
	return n, err
}

package model

import "github.com/google/uuid"

// Classroom is the read-only view of a class owned by a teacher.
type Classroom struct {
	ID        uuid.UUID `json:"id"`
	TeacherID uuid.UUID `json:"teacher_id"`
	IsActive  bool      `json:"is_active"`
}

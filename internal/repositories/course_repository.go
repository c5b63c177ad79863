package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// CourseRepository answers enrollment questions for the access policy. It is
// called on every send and contact-list fetch, so all three queries run
// against the course_students indexes rather than scanning courses.
type CourseRepository interface {
	// InstructorIDsOf returns the instructors of every course the student is
	// enrolled in.
	InstructorIDsOf(ctx context.Context, studentID int) ([]int, error)
	// StudentIDsOf returns the students enrolled in any course the
	// instructor teaches.
	StudentIDsOf(ctx context.Context, instructorID int) ([]int, error)
	// IsEnrolledWith reports whether the student is enrolled in at least one
	// of the instructor's courses.
	IsEnrolledWith(ctx context.Context, instructorID, studentID int) (bool, error)
}

// CourseRepo is a sqlx-backed repository.
type CourseRepo struct {
	db *sqlx.DB
}

// NewCourseRepo constructs CourseRepo.
func NewCourseRepo(db *sqlx.DB) *CourseRepo {
	return &CourseRepo{db: db}
}

func (r *CourseRepo) InstructorIDsOf(ctx context.Context, studentID int) ([]int, error) {
	ids := []int{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT c.instructor_id FROM courses c
         JOIN course_students cs ON cs.course_id = c.id
         WHERE cs.student_id=$1`, studentID)
	return ids, err
}

func (r *CourseRepo) StudentIDsOf(ctx context.Context, instructorID int) ([]int, error) {
	ids := []int{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT cs.student_id FROM course_students cs
         JOIN courses c ON c.id = cs.course_id
         WHERE c.instructor_id=$1`, instructorID)
	return ids, err
}

func (r *CourseRepo) IsEnrolledWith(ctx context.Context, instructorID, studentID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(
            SELECT 1 FROM course_students cs
            JOIN courses c ON c.id = cs.course_id
            WHERE c.instructor_id=$1 AND cs.student_id=$2)`, instructorID, studentID)
	return exists, err
}

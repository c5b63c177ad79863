package models

import "time"

// Course carries only what the chat access policy needs: who teaches it.
// Enrollment lives in the course_students join table.
type Course struct {
	ID           int       `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	InstructorID int       `db:"instructor_id" json:"instructor_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Enrollment links a student to a course.
type Enrollment struct {
	CourseID  int `db:"course_id" json:"course_id"`
	StudentID int `db:"student_id" json:"student_id"`
}

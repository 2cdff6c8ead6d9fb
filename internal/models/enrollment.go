package models

import "time"

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Enrollment is a student's claim on a course.
type Enrollment struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	CourseID   string           `db:"course_id" json:"course_id"`
	Status     EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt time.Time        `db:"enrolled_at" json:"enrolled_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail joins an enrollment with its course and student. Join
// columns are nullable because either side may have been removed.
type EnrollmentDetail struct {
	Enrollment
	CourseTitle    *string `db:"course_title" json:"course_title,omitempty"`
	CoursePrice    *int64  `db:"course_price_cents" json:"course_price_cents,omitempty"`
	CourseDuration *string `db:"course_duration" json:"course_duration,omitempty"`
	CourseImageURL *string `db:"course_image_url" json:"course_image_url,omitempty"`
	StudentName    *string `db:"student_name" json:"student_name,omitempty"`
	StudentEmail   *string `db:"student_email" json:"student_email,omitempty"`
	StudentCPF     *string `db:"student_cpf" json:"student_cpf,omitempty"`
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	StudentID string
	CourseID  string
	Status    EnrollmentStatus
	Search    string
}

// EnrollRequest is a student's self-enrollment request.
type EnrollRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
}

// ApprovalResult is returned by an approval.
type ApprovalResult struct {
	Enrollment  EnrollmentDetail `json:"enrollment"`
	Transaction Transaction      `json:"transaction"`
}

// CompletionResult reports a course completion bulk update.
type CompletionResult struct {
	CourseID string `json:"course_id"`
	Updated  int64  `json:"updated"`
}

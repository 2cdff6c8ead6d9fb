package models

import "time"

// AdminDashboard is the cached back-office overview.
type AdminDashboard struct {
	TotalStudents       int                      `json:"total_students"`
	ActiveCourses       int                      `json:"active_courses"`
	EnrollmentsByStatus map[EnrollmentStatus]int `json:"enrollments_by_status"`
	Finance             FinanceSummary           `json:"finance"`
	DegradedSources     []string                 `json:"degraded_sources,omitempty"`
	GeneratedAt         time.Time                `json:"generated_at"`
}

// StatusCount is a grouped enrollment count row.
type StatusCount struct {
	Status EnrollmentStatus `db:"status"`
	Total  int              `db:"total"`
}

// CertificateData is everything printed on a completion certificate.
type CertificateData struct {
	EnrollmentID string `json:"enrollment_id"`
	StudentName  string `json:"student_name"`
	StudentCPF   string `json:"student_cpf"`
	CourseTitle  string `json:"course_title"`
	Workload     string `json:"workload"`
	IssuedOn     string `json:"issued_on"`
	Code         string `json:"code"`
}

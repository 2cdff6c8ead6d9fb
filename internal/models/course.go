package models

import "time"

// CourseStatus controls catalog visibility.
type CourseStatus string

const (
	CourseStatusDraft  CourseStatus = "draft"
	CourseStatusActive CourseStatus = "active"
)

// Course levels offered in the admin form.
const (
	CourseLevelBeginner     = "Iniciante"
	CourseLevelIntermediate = "Intermediário"
	CourseLevelAdvanced     = "Avançado"
)

// DefaultCourseCategory is applied when a course is saved without category.
const DefaultCourseCategory = "Geral"

// Course is a sellable course.
type Course struct {
	ID           string       `db:"id" json:"id"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	ImageURL     string       `db:"image_url" json:"image_url"`
	Category     string       `db:"category" json:"category"`
	Duration     string       `db:"duration" json:"duration"`
	Level        string       `db:"level" json:"level"`
	ModulesCount int          `db:"modules_count" json:"modules_count"`
	PriceCents   int64        `db:"price_cents" json:"price_cents"`
	Status       CourseStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseRequest is the admin create/update payload.
type CourseRequest struct {
	Title        string       `json:"title" validate:"required,min=3,max=200"`
	Description  string       `json:"description" validate:"max=5000"`
	ImageURL     string       `json:"image_url" validate:"omitempty,url"`
	Category     string       `json:"category" validate:"max=60"`
	Duration     string       `json:"duration" validate:"max=30"`
	Level        string       `json:"level" validate:"omitempty,oneof=Iniciante Intermediário Avançado"`
	ModulesCount int          `json:"modules_count" validate:"gte=0,lte=500"`
	PriceCents   int64        `json:"price_cents" validate:"gte=0"`
	Status       CourseStatus `json:"status" validate:"omitempty,oneof=draft active"`
}

// CourseFilter narrows course listings.
type CourseFilter struct {
	Status   CourseStatus
	Category string
	Search   string
}

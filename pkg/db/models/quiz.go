package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Quiz is a company-scoped assessment.
type Quiz struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID   uuid.UUID      `gorm:"column:company_id;type:uuid;not null"`
	Name        string         `gorm:"column:name;not null"`
	Description *string        `gorm:"column:description"`
	PassRate    int            `gorm:"column:pass_rate;not null;default:0"`
	Tags        pq.StringArray `gorm:"column:tags;type:text[]"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// Question belongs to a quiz.
type Question struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuizID uuid.UUID `gorm:"column:quiz_id;type:uuid;not null"`
	Text   string    `gorm:"column:text;not null"`
}

// Answer is one option for a question.
type Answer struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuestionID uuid.UUID `gorm:"column:question_id;type:uuid;not null"`
	Text       string    `gorm:"column:text;not null"`
	IsCorrect  bool      `gorm:"column:is_correct;not null;default:false"`
}

// QuizAttempt records a member's submission of a quiz.
type QuizAttempt struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null"`
	QuizID         uuid.UUID `gorm:"column:quiz_id;type:uuid;not null"`
	CorrectCount   int       `gorm:"column:correct_count;not null;default:0"`
	TotalQuestions int       `gorm:"column:total_questions;not null;default:0"`
	AttemptedAt    time.Time `gorm:"column:attempted_at;autoCreateTime"`
}

package quizzes

import (
	"time"

	"github.com/google/uuid"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

// AnswerDTO is one option of a question. Correctness is exposed only to
// company staff; member views get it stripped.
type AnswerDTO struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect *bool     `json:"is_correct,omitempty"`
}

// QuestionDTO is a quiz question with its options.
type QuestionDTO struct {
	ID      uuid.UUID   `json:"id"`
	Text    string      `json:"text"`
	Answers []AnswerDTO `json:"answers"`
}

// QuizDTO is the transport shape for a quiz.
type QuizDTO struct {
	ID          uuid.UUID     `json:"id"`
	CompanyID   uuid.UUID     `json:"company_id"`
	Name        string        `json:"name"`
	Description *string       `json:"description,omitempty"`
	PassRate    int           `json:"pass_rate"`
	Tags        []string      `json:"tags,omitempty"`
	Questions   []QuestionDTO `json:"questions,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// QuizListResult is a paginated page of quizzes without their questions.
type QuizListResult struct {
	Items []QuizDTO       `json:"items"`
	Page  pagination.Page `json:"page"`
}

// AttemptDTO is the outcome of a submitted quiz attempt.
type AttemptDTO struct {
	ID             uuid.UUID `json:"id"`
	QuizID         uuid.UUID `json:"quiz_id"`
	UserID         uuid.UUID `json:"user_id"`
	CorrectCount   int       `json:"correct_count"`
	TotalQuestions int       `json:"total_questions"`
	AttemptedAt    time.Time `json:"attempted_at"`
}

func toQuizDTO(q *models.Quiz, questions []QuestionDTO) *QuizDTO {
	if q == nil {
		return nil
	}
	return &QuizDTO{
		ID:          q.ID,
		CompanyID:   q.CompanyID,
		Name:        q.Name,
		Description: q.Description,
		PassRate:    q.PassRate,
		Tags:        []string(q.Tags),
		Questions:   questions,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func toAttemptDTO(a *models.QuizAttempt) *AttemptDTO {
	if a == nil {
		return nil
	}
	return &AttemptDTO{
		ID:             a.ID,
		QuizID:         a.QuizID,
		UserID:         a.UserID,
		CorrectCount:   a.CorrectCount,
		TotalQuestions: a.TotalQuestions,
		AttemptedAt:    a.AttemptedAt,
	}
}

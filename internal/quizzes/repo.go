package quizzes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/repo"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

// QuizRepository owns the quizzes, questions and answers tables.
type QuizRepository struct {
	repo.Base
}

// NewQuizRepository binds the repo to the provided GORM connection.
func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{Base: repo.NewBase(db)}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *QuizRepository) WithTx(tx *gorm.DB) *QuizRepository {
	return NewQuizRepository(tx)
}

// CreateQuiz inserts the quiz header row. Questions go in separately so the
// caller controls the transaction boundary.
func (r *QuizRepository) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	if quiz.ID == uuid.Nil {
		quiz.ID = uuid.New()
	}
	return r.DB(ctx).Create(quiz).Error
}

// CreateQuestion inserts a question and its answers.
func (r *QuizRepository) CreateQuestion(ctx context.Context, question *models.Question, answers []models.Answer) error {
	if question.ID == uuid.Nil {
		question.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(question).Error; err != nil {
		return err
	}
	for i := range answers {
		answers[i].QuestionID = question.ID
		if answers[i].ID == uuid.Nil {
			answers[i].ID = uuid.New()
		}
	}
	return r.DB(ctx).Create(&answers).Error
}

// FindByID returns the quiz header, or gorm.ErrRecordNotFound.
func (r *QuizRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := r.DB(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

// LoadQuestions returns the questions of a quiz with their answers, ordered
// stably for presentation.
func (r *QuizRepository) LoadQuestions(ctx context.Context, quizID uuid.UUID) ([]models.Question, map[uuid.UUID][]models.Answer, error) {
	var questions []models.Question
	err := r.DB(ctx).
		Where("quiz_id = ?", quizID).
		Order("id").
		Find(&questions).Error
	if err != nil {
		return nil, nil, err
	}
	if len(questions) == 0 {
		return questions, map[uuid.UUID][]models.Answer{}, nil
	}

	ids := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	var answers []models.Answer
	err = r.DB(ctx).
		Where("question_id IN ?", ids).
		Order("id").
		Find(&answers).Error
	if err != nil {
		return nil, nil, err
	}

	byQuestion := make(map[uuid.UUID][]models.Answer, len(questions))
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}
	return questions, byQuestion, nil
}

// ListActiveByCompany returns active quiz headers for the company.
func (r *QuizRepository) ListActiveByCompany(ctx context.Context, companyID uuid.UUID, params pagination.Params) ([]models.Quiz, int64, error) {
	params = pagination.Normalize(params)

	var total int64
	err := r.DB(ctx).
		Model(&models.Quiz{}).
		Where("company_id = ? AND is_active", companyID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []models.Quiz
	err = r.DB(ctx).
		Where("company_id = ? AND is_active", companyID).
		Order("created_at").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update applies column updates to an active quiz.
func (r *QuizRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Quiz{}).
		Where("id = ? AND is_active", id).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// Deactivate soft-deletes the quiz. Questions stay behind for history.
func (r *QuizRepository) Deactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Quiz{}).
		Where("id = ? AND is_active", id).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// AttemptRepository owns the quiz_attempts table.
type AttemptRepository struct {
	repo.Base
}

// NewAttemptRepository binds the repo to the provided GORM connection.
func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{Base: repo.NewBase(db)}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *AttemptRepository) WithTx(tx *gorm.DB) *AttemptRepository {
	return NewAttemptRepository(tx)
}

// Create inserts an attempt row.
func (r *AttemptRepository) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	return r.DB(ctx).Create(attempt).Error
}

// LatestByUserAndQuiz returns the most recent attempt for the pair.
func (r *AttemptRepository) LatestByUserAndQuiz(ctx context.Context, userID, quizID uuid.UUID) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	err := r.DB(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("attempted_at DESC").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

package quizzes

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/events"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/membership"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
	apperrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

const (
	minQuestions          = 2
	minAnswersPerQuestion = 2
)

// AnswerInput is one option of a question being created.
type AnswerInput struct {
	Text      string
	IsCorrect bool
}

// QuestionInput is a question being created with its options.
type QuestionInput struct {
	Text    string
	Answers []AnswerInput
}

// CreateInput carries the fields for creating a quiz.
type CreateInput struct {
	Name        string
	Description *string
	PassRate    int
	Tags        []string
	Questions   []QuestionInput
}

// UpdateInput carries the staff-editable quiz header fields. Nil means leave
// the field untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	PassRate    *int
	Tags        []string
}

// AnswerSelection is one submitted answer of an attempt.
type AnswerSelection struct {
	QuestionID uuid.UUID `json:"question_id"`
	AnswerID   uuid.UUID `json:"answer_id"`
}

// attemptCache is the slice of the redis client used for caching the latest
// submission per user and quiz.
type attemptCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	QuizAttemptKey(userID, quizID string) string
}

type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service exposes company-scoped quiz management and attempts. Header
// mutations are owner-or-admin; taking quizzes is open to all active members.
type Service interface {
	Create(ctx context.Context, companyID, actorID uuid.UUID, input CreateInput) (*QuizDTO, error)
	GetByID(ctx context.Context, quizID, actorID uuid.UUID) (*QuizDTO, error)
	List(ctx context.Context, companyID, actorID uuid.UUID, params pagination.Params) (*QuizListResult, error)
	Update(ctx context.Context, quizID, actorID uuid.UUID, input UpdateInput) (*QuizDTO, error)
	Delete(ctx context.Context, quizID, actorID uuid.UUID) error
	SubmitAttempt(ctx context.Context, quizID, actorID uuid.UUID, selections []AnswerSelection) (*AttemptDTO, error)
}

type service struct {
	db       *gorm.DB
	quizzes  *QuizRepository
	attempts *AttemptRepository
	cache    attemptCache
	cacheTTL time.Duration
	logg     *logger.Logger
	events   eventPublisher
}

// NewService wires the quiz service. Cache and publisher may be nil; both
// concerns then degrade to no-ops.
func NewService(db *gorm.DB, logg *logger.Logger, cache attemptCache, cacheTTL time.Duration, publisher eventPublisher) (Service, error) {
	if db == nil {
		return nil, errors.New("quizzes service requires a database connection")
	}
	if logg == nil {
		return nil, errors.New("quizzes service requires a logger")
	}
	return &service{
		db:       db,
		quizzes:  NewQuizRepository(db),
		attempts: NewAttemptRepository(db),
		cache:    cache,
		cacheTTL: cacheTTL,
		logg:     logg,
		events:   publisher,
	}, nil
}

func (s *service) Create(ctx context.Context, companyID, actorID uuid.UUID, input CreateInput) (*QuizDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if err := s.authorizeStaff(ctx, actorID, companyID); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		ID:          uuid.New(),
		CompanyID:   companyID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		PassRate:    input.PassRate,
		Tags:        pq.StringArray(input.Tags),
		IsActive:    true,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quizzes := s.quizzes.WithTx(tx)
		if err := quizzes.CreateQuiz(ctx, quiz); err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "create quiz")
		}
		for _, q := range input.Questions {
			question := &models.Question{QuizID: quiz.ID, Text: strings.TrimSpace(q.Text)}
			answers := make([]models.Answer, 0, len(q.Answers))
			for _, a := range q.Answers {
				answers = append(answers, models.Answer{Text: strings.TrimSpace(a.Text), IsCorrect: a.IsCorrect})
			}
			if err := quizzes.CreateQuestion(ctx, question, answers); err != nil {
				return apperrors.Wrap(apperrors.CodeDependency, err, "create question")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithCompanyID(ctx, companyID.String())
	s.logg.Info(ctx, "quiz created")
	s.publishQuizCreated(ctx, quiz, actorID)
	return s.loadFullQuiz(ctx, quiz, true)
}

func (s *service) GetByID(ctx context.Context, quizID, actorID uuid.UUID) (*QuizDTO, error) {
	quiz, err := s.loadActive(ctx, quizID)
	if err != nil {
		return nil, err
	}
	staff, err := s.isStaff(ctx, actorID, quiz.CompanyID)
	if err != nil {
		return nil, err
	}
	if !staff {
		if err := s.authorizeMember(ctx, actorID, quiz.CompanyID); err != nil {
			return nil, err
		}
	}
	return s.loadFullQuiz(ctx, quiz, staff)
}

func (s *service) List(ctx context.Context, companyID, actorID uuid.UUID, params pagination.Params) (*QuizListResult, error) {
	staff, err := s.isStaff(ctx, actorID, companyID)
	if err != nil {
		return nil, err
	}
	if !staff {
		if err := s.authorizeMember(ctx, actorID, companyID); err != nil {
			return nil, err
		}
	}

	params = pagination.Normalize(params)
	rows, total, err := s.quizzes.ListActiveByCompany(ctx, companyID, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "list quizzes")
	}
	items := make([]QuizDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *toQuizDTO(&rows[i], nil))
	}
	return &QuizListResult{Items: items, Page: pagination.NewPage(params, total)}, nil
}

func (s *service) Update(ctx context.Context, quizID, actorID uuid.UUID, input UpdateInput) (*QuizDTO, error) {
	quiz, err := s.loadActive(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeStaff(ctx, actorID, quiz.CompanyID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "quiz name is required")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.PassRate != nil {
		if *input.PassRate < 0 || *input.PassRate > 100 {
			return nil, apperrors.New(apperrors.CodeValidation, "pass rate must be between 0 and 100")
		}
		updates["pass_rate"] = *input.PassRate
	}
	if input.Tags != nil {
		updates["tags"] = pq.StringArray(input.Tags)
	}
	if len(updates) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "nothing to update")
	}

	if _, err := s.quizzes.Update(ctx, quizID, updates); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "update quiz")
	}
	quiz, err = s.loadActive(ctx, quizID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithCompanyID(ctx, quiz.CompanyID.String())
	s.logg.Info(ctx, "quiz updated")
	return s.loadFullQuiz(ctx, quiz, true)
}

func (s *service) Delete(ctx context.Context, quizID, actorID uuid.UUID) error {
	quiz, err := s.loadActive(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.authorizeStaff(ctx, actorID, quiz.CompanyID); err != nil {
		return err
	}
	rows, err := s.quizzes.Deactivate(ctx, quizID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "deactivate quiz")
	}
	if rows == 0 {
		return notFound()
	}
	ctx = s.logg.WithCompanyID(ctx, quiz.CompanyID.String())
	s.logg.Info(ctx, "quiz deactivated")
	return nil
}

func (s *service) SubmitAttempt(ctx context.Context, quizID, actorID uuid.UUID, selections []AnswerSelection) (*AttemptDTO, error) {
	quiz, err := s.loadActive(ctx, quizID)
	if err != nil {
		return nil, err
	}
	staff, err := s.isStaff(ctx, actorID, quiz.CompanyID)
	if err != nil {
		return nil, err
	}
	if !staff {
		if err := s.authorizeMember(ctx, actorID, quiz.CompanyID); err != nil {
			return nil, err
		}
	}

	questions, answersByQuestion, err := s.quizzes.LoadQuestions(ctx, quizID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "load questions")
	}

	chosen := make(map[uuid.UUID]uuid.UUID, len(selections))
	for _, sel := range selections {
		if _, dup := chosen[sel.QuestionID]; dup {
			return nil, apperrors.New(apperrors.CodeValidation, "duplicate answer for question")
		}
		chosen[sel.QuestionID] = sel.AnswerID
	}

	correct := 0
	valid := make(map[uuid.UUID]bool, len(questions))
	for _, q := range questions {
		valid[q.ID] = true
		answerID, answered := chosen[q.ID]
		if !answered {
			continue
		}
		for _, a := range answersByQuestion[q.ID] {
			if a.ID == answerID && a.IsCorrect {
				correct++
				break
			}
		}
	}
	for questionID := range chosen {
		if !valid[questionID] {
			return nil, apperrors.New(apperrors.CodeValidation, "answer references unknown question")
		}
	}

	attempt := &models.QuizAttempt{
		ID:             uuid.New(),
		UserID:         actorID,
		QuizID:         quizID,
		CorrectCount:   correct,
		TotalQuestions: len(questions),
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "store attempt")
	}

	s.cacheLatestAttempt(ctx, actorID, quizID, attempt, selections)
	ctx = s.logg.WithCompanyID(ctx, quiz.CompanyID.String())
	ctx = s.logg.WithUserID(ctx, actorID.String())
	s.logg.Info(ctx, "quiz attempt submitted")
	return toAttemptDTO(attempt), nil
}

// cachedAttempt is the redis payload holding the latest submission per user
// and quiz.
type cachedAttempt struct {
	AttemptID      uuid.UUID         `json:"attempt_id"`
	QuizID         uuid.UUID         `json:"quiz_id"`
	UserID         uuid.UUID         `json:"user_id"`
	Selections     []AnswerSelection `json:"selections"`
	CorrectCount   int               `json:"correct_count"`
	TotalQuestions int               `json:"total_questions"`
	SubmittedAt    time.Time         `json:"submitted_at"`
}

func (s *service) cacheLatestAttempt(ctx context.Context, userID, quizID uuid.UUID, attempt *models.QuizAttempt, selections []AnswerSelection) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(cachedAttempt{
		AttemptID:      attempt.ID,
		QuizID:         quizID,
		UserID:         userID,
		Selections:     selections,
		CorrectCount:   attempt.CorrectCount,
		TotalQuestions: attempt.TotalQuestions,
		SubmittedAt:    time.Now().UTC(),
	})
	if err != nil {
		s.logg.Warn(ctx, "marshal attempt cache payload: "+err.Error())
		return
	}
	key := s.cache.QuizAttemptKey(userID.String(), quizID.String())
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
		// Cache loss is tolerable; the attempt row is already committed.
		s.logg.Warn(ctx, "cache quiz attempt: "+err.Error())
	}
}

func (s *service) publishQuizCreated(ctx context.Context, quiz *models.Quiz, actorID uuid.UUID) {
	if s.events == nil {
		return
	}
	event := events.New(enums.EventQuizCreated, quiz.CompanyID)
	event.UserID = actorID
	event.QuizID = quiz.ID
	event.QuizName = quiz.Name
	if err := s.events.Publish(ctx, event); err != nil {
		s.logg.Warn(ctx, "publish quiz created event: "+err.Error())
	}
}

func (s *service) loadFullQuiz(ctx context.Context, quiz *models.Quiz, staff bool) (*QuizDTO, error) {
	questions, answersByQuestion, err := s.quizzes.LoadQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "load questions")
	}
	dtos := make([]QuestionDTO, 0, len(questions))
	for _, q := range questions {
		answers := make([]AnswerDTO, 0, len(answersByQuestion[q.ID]))
		for _, a := range answersByQuestion[q.ID] {
			dto := AnswerDTO{ID: a.ID, Text: a.Text}
			if staff {
				isCorrect := a.IsCorrect
				dto.IsCorrect = &isCorrect
			}
			answers = append(answers, dto)
		}
		dtos = append(dtos, QuestionDTO{ID: q.ID, Text: q.Text, Answers: answers})
	}
	return toQuizDTO(quiz, dtos), nil
}

func (s *service) loadActive(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound()
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "load quiz")
	}
	if !quiz.IsActive {
		return nil, notFound()
	}
	return quiz, nil
}

func (s *service) isStaff(ctx context.Context, actorID, companyID uuid.UUID) (bool, error) {
	staff, err := membership.IsAdminOrOwner(ctx, s.db, actorID, companyID)
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeDependency, err, "check staff role")
	}
	return staff, nil
}

func (s *service) authorizeStaff(ctx context.Context, actorID, companyID uuid.UUID) error {
	staff, err := s.isStaff(ctx, actorID, companyID)
	if err != nil {
		return err
	}
	if !staff {
		return apperrors.New(apperrors.CodeForbidden, "admin or owner authorization required")
	}
	return nil
}

func (s *service) authorizeMember(ctx context.Context, actorID, companyID uuid.UUID) error {
	member, err := membership.IsActiveMember(ctx, s.db, actorID, companyID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "check membership")
	}
	if !member {
		return apperrors.New(apperrors.CodeForbidden, "company membership required")
	}
	return nil
}

func validateCreate(input CreateInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.New(apperrors.CodeValidation, "quiz name is required")
	}
	if input.PassRate < 0 || input.PassRate > 100 {
		return apperrors.New(apperrors.CodeValidation, "pass rate must be between 0 and 100")
	}
	if len(input.Questions) < minQuestions {
		return apperrors.New(apperrors.CodeValidation, "quiz needs at least two questions")
	}
	for _, q := range input.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return apperrors.New(apperrors.CodeValidation, "question text is required")
		}
		if len(q.Answers) < minAnswersPerQuestion {
			return apperrors.New(apperrors.CodeValidation, "question needs at least two answer options")
		}
		hasCorrect := false
		for _, a := range q.Answers {
			if strings.TrimSpace(a.Text) == "" {
				return apperrors.New(apperrors.CodeValidation, "answer text is required")
			}
			if a.IsCorrect {
				hasCorrect = true
			}
		}
		if !hasCorrect {
			return apperrors.New(apperrors.CodeValidation, "question needs a correct answer")
		}
	}
	return nil
}

func notFound() error {
	return apperrors.New(apperrors.CodeNotFound, "quiz not found")
}

package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/api/responses"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/api/validators"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/quizzes"
	pkgerrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
)

type answerRequest struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type questionRequest struct {
	Text    string          `json:"text" validate:"required"`
	Answers []answerRequest `json:"answers" validate:"required,min=2,dive"`
}

type createQuizRequest struct {
	Name        string            `json:"name" validate:"required"`
	Description *string           `json:"description"`
	PassRate    int               `json:"pass_rate" validate:"min=0,max=100"`
	Tags        []string          `json:"tags"`
	Questions   []questionRequest `json:"questions" validate:"required,min=2,dive"`
}

type updateQuizRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	PassRate    *int     `json:"pass_rate" validate:"omitempty,min=0,max=100"`
	Tags        []string `json:"tags"`
}

type attemptRequest struct {
	Answers []quizzes.AnswerSelection `json:"answers" validate:"required,min=1"`
}

// CreateQuiz registers a quiz under a company, staff only.
func CreateQuiz(svc quizzes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quizzes service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		companyID, err := pathUUID(r, "companyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createQuizRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := quizzes.CreateInput{
			Name:        body.Name,
			Description: body.Description,
			PassRate:    body.PassRate,
			Tags:        body.Tags,
		}
		for _, q := range body.Questions {
			question := quizzes.QuestionInput{Text: q.Text}
			for _, a := range q.Answers {
				question.Answers = append(question.Answers, quizzes.AnswerInput{
					Text:      a.Text,
					IsCorrect: a.IsCorrect,
				})
			}
			input.Questions = append(input.Questions, question)
		}

		quiz, err := svc.Create(r.Context(), companyID, actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, quiz)
	}
}

// GetQuiz returns a quiz. Correct-answer flags are only present for staff.
func GetQuiz(svc quizzes.Service, logg *logger.Logger) http.HandlerFunc {
	return quizEndpoint(svc, logg, func(r *http.Request, quizID, actor uuid.UUID) (any, error) {
		return svc.GetByID(r.Context(), quizID, actor)
	})
}

func quizEndpoint(svc quizzes.Service, logg *logger.Logger, call func(r *http.Request, quizID, actor uuid.UUID) (any, error)) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "quizzes service unavailable")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quizID, err := pathUUID(r, "quizId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := call(r, quizID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListQuizzes returns the active quizzes of a company, members only.
func ListQuizzes(svc quizzes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quizzes service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		companyID, err := pathUUID(r, "companyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), companyID, actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UpdateQuiz patches quiz metadata, staff only.
func UpdateQuiz(svc quizzes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quizzes service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quizID, err := pathUUID(r, "quizId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateQuizRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quiz, err := svc.Update(r.Context(), quizID, actor, quizzes.UpdateInput{
			Name:        body.Name,
			Description: body.Description,
			PassRate:    body.PassRate,
			Tags:        body.Tags,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quiz)
	}
}

// DeleteQuiz soft-deletes a quiz, staff only.
func DeleteQuiz(svc quizzes.Service, logg *logger.Logger) http.HandlerFunc {
	return quizEndpoint(svc, logg, func(r *http.Request, quizID, actor uuid.UUID) (any, error) {
		if err := svc.Delete(r.Context(), quizID, actor); err != nil {
			return nil, err
		}
		return map[string]string{"status": "deleted"}, nil
	})
}

// SubmitQuizAttempt grades the caller's answers and records the attempt.
func SubmitQuizAttempt(svc quizzes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quizzes service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quizID, err := pathUUID(r, "quizId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body attemptRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		attempt, err := svc.SubmitAttempt(r.Context(), quizID, actor, body.Answers)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, attempt)
	}
}

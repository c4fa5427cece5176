package handler

import (
	"errors"

	"github.com/danuarta/lingolearn-be/internal/delivery/http/domain"
	"github.com/danuarta/lingolearn-be/internal/delivery/http/entity"
	"github.com/danuarta/lingolearn-be/internal/delivery/http/usecase"
	"github.com/danuarta/lingolearn-be/internal/pkg/response"
	"github.com/danuarta/lingolearn-be/internal/pkg/validate"
	"github.com/danuarta/lingolearn-be/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type (
	LessonSessionHandler interface {
		UpsertLesson(ctx *fiber.Ctx) error
		GetLesson(ctx *fiber.Ctx) error
		ListLessons(ctx *fiber.Ctx) error
		OpenSession(ctx *fiber.Ctx) error
		GetSession(ctx *fiber.Ctx) error
		SubmitAnswer(ctx *fiber.Ctx) error
		Advance(ctx *fiber.Ctx) error
		Retreat(ctx *fiber.Ctx) error
		Navigate(ctx *fiber.Ctx) error
		Redo(ctx *fiber.Ctx) error
		CloseSession(ctx *fiber.Ctx) error
		GetSessionAnswers(ctx *fiber.Ctx) error
	}

	lessonSessionHandler struct {
		validator *validate.Validator
		logger    *logrus.Logger
		usecase   usecase.LessonSessionUsecase
	}
)

func NewLessonSessionHandler(validator *validate.Validator, logger *logrus.Logger, usecase usecase.LessonSessionUsecase) LessonSessionHandler {
	return &lessonSessionHandler{
		validator: validator,
		logger:    logger,
		usecase:   usecase,
	}
}

// POST /lessons
func (h *lessonSessionHandler) UpsertLesson(ctx *fiber.Ctx) error {
	var req entity.UpsertLessonRequest

	if err := h.validator.ParseAndValidate(ctx, &req); err != nil {
		return response.NewFailed(domain.LESSON_UPSERT_FAILED, fiber.NewError(fiber.StatusBadRequest, err.Error()), h.logger).Send(ctx)
	}

	if err := h.usecase.UpsertLesson(ctx.UserContext(), req); err != nil {
		return response.NewFailed(domain.LESSON_UPSERT_FAILED, fiber.NewError(fiber.StatusBadRequest, err.Error()), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.LESSON_UPSERT_SUCCESS, nil, nil).Send(ctx)
}

// GET /lessons/:lesson_id
func (h *lessonSessionHandler) GetLesson(ctx *fiber.Ctx) error {
	lessonID := ctx.Params("lesson_id")
	if lessonID == "" {
		return response.NewFailed(domain.LESSON_GET_FAILED, fiber.NewError(fiber.StatusBadRequest, "lesson_id is required"), h.logger).Send(ctx)
	}

	result, err := h.usecase.GetLesson(ctx.UserContext(), lessonID)
	if err != nil {
		return response.NewFailed(domain.LESSON_GET_FAILED, fiber.NewError(fiber.StatusNotFound, err.Error()), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.LESSON_GET_SUCCESS, result, nil).Send(ctx)
}

// GET /lessons?language=
func (h *lessonSessionHandler) ListLessons(ctx *fiber.Ctx) error {
	language := ctx.Query("language")
	if language == "" {
		return response.NewFailed(domain.LESSON_LIST_FAILED, fiber.NewError(fiber.StatusBadRequest, "language is required"), h.logger).Send(ctx)
	}

	result, err := h.usecase.ListLessons(ctx.UserContext(), language)
	if err != nil {
		return response.NewFailed(domain.LESSON_LIST_FAILED, fiber.NewError(fiber.StatusBadRequest, err.Error()), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.LESSON_LIST_SUCCESS, result, nil).Send(ctx)
}

// POST /sessions
func (h *lessonSessionHandler) OpenSession(ctx *fiber.Ctx) error {
	var req entity.OpenSessionRequest

	if err := h.validator.ParseAndValidate(ctx, &req); err != nil {
		return response.NewFailed(domain.SESSION_OPEN_FAILED, fiber.NewError(fiber.StatusBadRequest, err.Error()), h.logger).Send(ctx)
	}

	result, err := h.usecase.OpenSession(ctx.UserContext(), req)
	if err != nil {
		return response.NewFailed(domain.SESSION_OPEN_FAILED, fiber.NewError(fiber.StatusBadRequest, err.Error()), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.SESSION_OPEN_SUCCESS, result, nil).Send(ctx)
}

// GET /sessions/:session_id
func (h *lessonSessionHandler) GetSession(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return response.NewFailed(domain.SESSION_GET_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id is required"), h.logger).Send(ctx)
	}

	result, err := h.usecase.GetSession(ctx.UserContext(), sessionID)
	if err != nil {
		return response.NewFailed(domain.SESSION_GET_FAILED, fiber.NewError(fiber.StatusNotFound, err.Error()), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.SESSION_GET_SUCCESS, result, nil).Send(ctx)
}

// POST /sessions/:session_id/answers
func (h *lessonSessionHandler) SubmitAnswer(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return response.NewFailed(domain.SESSION_SUBMIT_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id is required"), h.logger).Send(ctx)
	}

	var req entity.SubmitAnswerRequest
	if err := h.validator.ParseAndValidate(ctx, &req); err != nil {
		return response.NewFailed(domain.SESSION_SUBMIT_FAILED, fiber.NewError(fiber.StatusBadRequest, err.Error()), h.logger).Send(ctx)
	}

	result, err := h.usecase.SubmitAnswer(ctx.UserContext(), sessionID, req)
	if err != nil {
		return response.NewFailed(domain.SESSION_SUBMIT_FAILED, statusForSessionError(err), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.SESSION_SUBMIT_SUCCESS, result, nil).Send(ctx)
}

// POST /sessions/:session_id/advance
func (h *lessonSessionHandler) Advance(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return response.NewFailed(domain.SESSION_ADVANCE_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id is required"), h.logger).Send(ctx)
	}

	result, err := h.usecase.Advance(ctx.UserContext(), sessionID)
	if err != nil {
		return response.NewFailed(domain.SESSION_ADVANCE_FAILED, statusForSessionError(err), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.SESSION_ADVANCE_SUCCESS, result, nil).Send(ctx)
}

// POST /sessions/:session_id/retreat
func (h *lessonSessionHandler) Retreat(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return response.NewFailed(domain.SESSION_RETREAT_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id is required"), h.logger).Send(ctx)
	}

	result, err := h.usecase.Retreat(ctx.UserContext(), sessionID)
	if err != nil {
		return response.NewFailed(domain.SESSION_RETREAT_FAILED, statusForSessionError(err), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.SESSION_RETREAT_SUCCESS, result, nil).Send(ctx)
}

// POST /sessions/:session_id/navigate
func (h *lessonSessionHandler) Navigate(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return response.NewFailed(domain.SESSION_NAVIGATE_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id is required"), h.logger).Send(ctx)
	}

	var req entity.NavigateRequest
	if err := h.validator.ParseAndValidate(ctx, &req); err != nil {
		return response.NewFailed(domain.SESSION_NAVIGATE_FAILED, fiber.NewError(fiber.StatusBadRequest, err.Error()), h.logger).Send(ctx)
	}

	result, err := h.usecase.NavigateTo(ctx.UserContext(), sessionID, *req.Index)
	if err != nil {
		return response.NewFailed(domain.SESSION_NAVIGATE_FAILED, statusForSessionError(err), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.SESSION_NAVIGATE_SUCCESS, result, nil).Send(ctx)
}

// POST /sessions/:session_id/redo
func (h *lessonSessionHandler) Redo(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return response.NewFailed(domain.SESSION_REDO_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id is required"), h.logger).Send(ctx)
	}

	result, err := h.usecase.Redo(ctx.UserContext(), sessionID)
	if err != nil {
		return response.NewFailed(domain.SESSION_REDO_FAILED, statusForSessionError(err), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.SESSION_REDO_SUCCESS, result, nil).Send(ctx)
}

// DELETE /sessions/:session_id
func (h *lessonSessionHandler) CloseSession(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return response.NewFailed(domain.SESSION_CLOSE_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id is required"), h.logger).Send(ctx)
	}

	if err := h.usecase.CloseSession(ctx.UserContext(), sessionID); err != nil {
		return response.NewFailed(domain.SESSION_CLOSE_FAILED, fiber.NewError(fiber.StatusNotFound, err.Error()), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.SESSION_CLOSE_SUCCESS, nil, nil).Send(ctx)
}

// GET /sessions/:session_id/answers
func (h *lessonSessionHandler) GetSessionAnswers(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return response.NewFailed(domain.SESSION_ANSWERS_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id is required"), h.logger).Send(ctx)
	}

	result, err := h.usecase.GetSessionAnswers(ctx.UserContext(), sessionID)
	if err != nil {
		return response.NewFailed(domain.SESSION_ANSWERS_FAILED, fiber.NewError(fiber.StatusBadRequest, err.Error()), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.SESSION_ANSWERS_SUCCESS, result, nil).Send(ctx)
}

// statusForSessionError keeps blocked-but-expected session rules on 4xx codes.
func statusForSessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrAnswerRequired),
		errors.Is(err, session.ErrGradingPending),
		errors.Is(err, session.ErrNavigationBlocked),
		errors.Is(err, session.ErrSessionCompleted):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, session.ErrStepNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}

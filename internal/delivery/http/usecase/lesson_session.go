package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/danuarta/lingolearn-be/internal/delivery/http/entity"
	"github.com/danuarta/lingolearn-be/internal/delivery/http/repository"
	internalEntity "github.com/danuarta/lingolearn-be/internal/entity"
	"github.com/danuarta/lingolearn-be/internal/lesson"
	"github.com/danuarta/lingolearn-be/internal/pkg/mapper"
	"github.com/danuarta/lingolearn-be/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

type LessonSessionUsecase interface {
	UpsertLesson(ctx context.Context, req entity.UpsertLessonRequest) error
	GetLesson(ctx context.Context, lessonID string) (*entity.LessonResponse, error)
	ListLessons(ctx context.Context, language string) ([]entity.LessonSummary, error)

	OpenSession(ctx context.Context, req entity.OpenSessionRequest) (*entity.SessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*entity.SessionResponse, error)
	SubmitAnswer(ctx context.Context, sessionID string, req entity.SubmitAnswerRequest) (*entity.SubmitAnswerResponse, error)
	Advance(ctx context.Context, sessionID string) (*entity.SessionResponse, error)
	Retreat(ctx context.Context, sessionID string) (*entity.SessionResponse, error)
	NavigateTo(ctx context.Context, sessionID string, index int) (*entity.SessionResponse, error)
	Redo(ctx context.Context, sessionID string) (*entity.SessionResponse, error)
	CloseSession(ctx context.Context, sessionID string) error
	GetSessionAnswers(ctx context.Context, sessionID string) ([]entity.AnswerLogItem, error)
}

type LessonSessionConfig struct {
	DB         *gorm.DB
	Repository repository.LessonRepository
	Manager    *session.Manager
	Grader     lesson.Grader
	Progress   session.ProgressStore
	Completer  session.Completer
	Log        *logrus.Logger
	Config     *viper.Viper
}

type lessonSessionUsecase struct {
	cfg LessonSessionConfig
}

func NewLessonSessionUsecase(cfg LessonSessionConfig) LessonSessionUsecase {
	return &lessonSessionUsecase{cfg: cfg}
}

func (u *lessonSessionUsecase) UpsertLesson(ctx context.Context, req entity.UpsertLessonRequest) error {
	doc := &lesson.Lesson{
		LessonID: req.LessonID,
		Title:    req.Title,
		Language: req.Language,
		Level:    req.Level,
		Steps:    req.Steps,
	}
	if err := doc.Normalize(); err != nil {
		return err
	}

	record, err := mapper.ConvertToLessonRecord(doc)
	if err != nil {
		return fmt.Errorf("failed to encode lesson: %w", err)
	}
	return u.cfg.Repository.UpsertLesson(u.cfg.DB, record)
}

func (u *lessonSessionUsecase) GetLesson(ctx context.Context, lessonID string) (*entity.LessonResponse, error) {
	doc, err := u.loadLesson(lessonID)
	if err != nil {
		return nil, err
	}

	// Authoritative answers never leave the server.
	steps := make([]entity.LessonStep, 0, len(doc.Steps))
	for _, s := range doc.Steps {
		steps = append(steps, entity.LessonStep{
			ID:       s.ID,
			Type:     s.Type,
			Content:  s.Content,
			ImageURL: s.ImageURL,
			Question: s.Question,
			Options:  s.Options,
			Hint:     s.Hint,
		})
	}

	return &entity.LessonResponse{
		LessonID: doc.LessonID,
		Title:    doc.Title,
		Language: doc.Language,
		Level:    doc.Level,
		Steps:    steps,
	}, nil
}

func (u *lessonSessionUsecase) ListLessons(ctx context.Context, language string) ([]entity.LessonSummary, error) {
	records, err := u.cfg.Repository.FindLessonsByLanguage(u.cfg.DB, language)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}

	summaries := make([]entity.LessonSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, entity.LessonSummary{
			LessonID: record.LessonID,
			Title:    record.Title,
			Language: record.Language,
			Level:    record.Level,
		})
	}
	return summaries, nil
}

func (u *lessonSessionUsecase) OpenSession(ctx context.Context, req entity.OpenSessionRequest) (*entity.SessionResponse, error) {
	doc, err := u.loadLesson(req.LessonID)
	if err != nil {
		return nil, err
	}

	language := req.Language
	if language == "" {
		language = doc.Language
	}
	cefrLevel := req.UserCEFRLevel
	if cefrLevel == "" {
		cefrLevel = doc.Level
	}

	gradeTimeout := time.Duration(0)
	if u.cfg.Config != nil {
		gradeTimeout = time.Duration(u.cfg.Config.GetInt("collaborators.grader.timeout_seconds")) * time.Second
	}

	ctrl := session.NewController(session.ControllerConfig{
		Lesson:        doc,
		ReviewMode:    req.Review,
		Language:      language,
		UserCEFRLevel: cefrLevel,
		Grader:        u.cfg.Grader,
		Progress:      u.cfg.Progress,
		Completer:     u.cfg.Completer,
		Log:           u.cfg.Log,
		GradeTimeout:  gradeTimeout,
	})
	if err := ctrl.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	sessionID := u.cfg.Manager.Add(ctrl)
	return u.sessionResponse(sessionID, ctrl), nil
}

func (u *lessonSessionUsecase) GetSession(ctx context.Context, sessionID string) (*entity.SessionResponse, error) {
	ctrl, err := u.controller(sessionID)
	if err != nil {
		return nil, err
	}
	return u.sessionResponse(sessionID, ctrl), nil
}

func (u *lessonSessionUsecase) SubmitAnswer(ctx context.Context, sessionID string, req entity.SubmitAnswerRequest) (*entity.SubmitAnswerResponse, error) {
	ctrl, err := u.controller(sessionID)
	if err != nil {
		return nil, err
	}

	answer := lesson.Answer{Choice: req.Choice, Text: req.Text}
	result, err := ctrl.Submit(req.StepID, answer)
	if err != nil {
		return nil, err
	}

	pending := false
	if result == nil {
		for _, id := range ctrl.PendingSteps() {
			if id == req.StepID {
				pending = true
				break
			}
		}
	}

	if result != nil {
		u.logAnswer(sessionID, ctrl.Snapshot().LessonID, req, result)
	}

	return &entity.SubmitAnswerResponse{
		StepID:   req.StepID,
		Pending:  pending,
		Feedback: result,
	}, nil
}

// logAnswer appends the graded submission to the answer log, fire-and-forget.
func (u *lessonSessionUsecase) logAnswer(sessionID, lessonID string, req entity.SubmitAnswerRequest, result *lesson.FeedbackResult) {
	userAnswer := req.Text
	if req.Choice != nil {
		userAnswer = strconv.Itoa(*req.Choice)
	}

	logEntry := &internalEntity.AnswerLog{
		SessionID:  sessionID,
		LessonID:   lessonID,
		StepID:     req.StepID,
		UserAnswer: userAnswer,
		IsCorrect:  result.IsCorrect,
		Score:      result.Score,
		Feedback:   result.Message,
	}

	go func() {
		if err := u.cfg.Repository.CreateAnswerLog(u.cfg.DB, logEntry); err != nil {
			u.cfg.Log.WithError(err).Warnf("failed to log answer for session %s step %s", sessionID, req.StepID)
		}
	}()
}

func (u *lessonSessionUsecase) Advance(ctx context.Context, sessionID string) (*entity.SessionResponse, error) {
	ctrl, err := u.controller(sessionID)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Advance(); err != nil {
		return nil, err
	}
	return u.sessionResponse(sessionID, ctrl), nil
}

func (u *lessonSessionUsecase) Retreat(ctx context.Context, sessionID string) (*entity.SessionResponse, error) {
	ctrl, err := u.controller(sessionID)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Retreat(); err != nil {
		return nil, err
	}
	return u.sessionResponse(sessionID, ctrl), nil
}

func (u *lessonSessionUsecase) NavigateTo(ctx context.Context, sessionID string, index int) (*entity.SessionResponse, error) {
	ctrl, err := u.controller(sessionID)
	if err != nil {
		return nil, err
	}
	if err := ctrl.NavigateTo(index); err != nil {
		return nil, err
	}
	return u.sessionResponse(sessionID, ctrl), nil
}

func (u *lessonSessionUsecase) Redo(ctx context.Context, sessionID string) (*entity.SessionResponse, error) {
	ctrl, err := u.controller(sessionID)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Reset(ctx); err != nil {
		return nil, err
	}
	return u.sessionResponse(sessionID, ctrl), nil
}

func (u *lessonSessionUsecase) CloseSession(ctx context.Context, sessionID string) error {
	if !u.cfg.Manager.Remove(sessionID) {
		return fmt.Errorf("session not found")
	}
	return nil
}

func (u *lessonSessionUsecase) GetSessionAnswers(ctx context.Context, sessionID string) ([]entity.AnswerLogItem, error) {
	logs, err := u.cfg.Repository.FindAnswerLogsBySessionID(u.cfg.DB, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session answers: %w", err)
	}

	items := make([]entity.AnswerLogItem, 0, len(logs))
	for _, logEntry := range logs {
		items = append(items, entity.AnswerLogItem{
			ID:         logEntry.ID,
			LessonID:   logEntry.LessonID,
			StepID:     logEntry.StepID,
			UserAnswer: logEntry.UserAnswer,
			IsCorrect:  logEntry.IsCorrect,
			Score:      logEntry.Score,
			Feedback:   logEntry.Feedback,
			AnsweredAt: logEntry.AnsweredAt.Format(time.RFC3339),
		})
	}
	return items, nil
}

func (u *lessonSessionUsecase) controller(sessionID string) (*session.Controller, error) {
	ctrl := u.cfg.Manager.Get(sessionID)
	if ctrl == nil {
		return nil, fmt.Errorf("session not found")
	}
	return ctrl, nil
}

func (u *lessonSessionUsecase) sessionResponse(sessionID string, ctrl *session.Controller) *entity.SessionResponse {
	snapshot := ctrl.Snapshot()
	snapshot.SessionID = sessionID
	return &entity.SessionResponse{
		SessionID: sessionID,
		Snapshot:  snapshot,
	}
}

func (u *lessonSessionUsecase) loadLesson(lessonID string) (*lesson.Lesson, error) {
	record, err := u.cfg.Repository.FindLessonByLessonID(u.cfg.DB, lessonID)
	if err != nil {
		return nil, fmt.Errorf("lesson not found: %w", err)
	}
	return mapper.ConvertToLesson(record)
}

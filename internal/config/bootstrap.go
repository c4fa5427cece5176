package config

import (
	"time"

	"github.com/danuarta/lingolearn-be/internal/delivery/http/handler"
	"github.com/danuarta/lingolearn-be/internal/delivery/http/middleware"
	"github.com/danuarta/lingolearn-be/internal/delivery/http/repository"
	"github.com/danuarta/lingolearn-be/internal/delivery/http/route"
	"github.com/danuarta/lingolearn-be/internal/delivery/http/usecase"
	"github.com/danuarta/lingolearn-be/internal/lesson"
	"github.com/danuarta/lingolearn-be/internal/pkg/grader"
	"github.com/danuarta/lingolearn-be/internal/pkg/llm"
	"github.com/danuarta/lingolearn-be/internal/pkg/progress"
	"github.com/danuarta/lingolearn-be/internal/pkg/validate"
	"github.com/danuarta/lingolearn-be/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

type BootstrapConfig struct {
	Api       *fiber.App
	Config    *viper.Viper
	DB        *gorm.DB
	Log       *logrus.Logger
	Validator *validate.Validator
}

func Bootstrap(config *BootstrapConfig) *session.Manager {

	mid := middleware.NewMiddleware(&middleware.MiddlewareConfig{
		Log:    config.Log,
		Config: config.Config,
	})

	progressURL := ""
	graderURL := ""
	graderTimeout := 0
	apiKey := ""
	model := ""
	baseURL := ""
	promptTemplate := ""
	if config.Config != nil {
		progressURL = config.Config.GetString("collaborators.progress.base_url")
		graderURL = config.Config.GetString("collaborators.grader.base_url")
		graderTimeout = config.Config.GetInt("collaborators.grader.timeout_seconds")
		apiKey = config.Config.GetString("llm.openai.api_key")
		model = config.Config.GetString("llm.openai.model")
		baseURL = config.Config.GetString("llm.openai.base_url")
		promptTemplate = config.Config.GetString("llm.openai.prompt_template")
	}

	var progressStore session.ProgressStore
	var completer session.Completer
	if progressURL != "" {
		client := progress.NewClient(progressURL, config.Log)
		progressStore = client
		completer = client
	}

	// Prefer the remote grading collaborator; fall back to grading through the
	// LLM directly when only an API key is configured.
	var freeResponseGrader lesson.Grader
	if graderURL != "" {
		freeResponseGrader = grader.NewClient(graderURL, time.Duration(graderTimeout)*time.Second)
	} else if apiKey != "" {
		freeResponseGrader = grader.NewLLMGrader(llm.NewClient(apiKey, model, baseURL), promptTemplate)
	}

	manager := session.NewManager()
	lessonRepo := repository.NewLessonRepository(config.DB)
	lessonSessionUsecase := usecase.NewLessonSessionUsecase(usecase.LessonSessionConfig{
		DB:         config.DB,
		Repository: lessonRepo,
		Manager:    manager,
		Grader:     freeResponseGrader,
		Progress:   progressStore,
		Completer:  completer,
		Log:        config.Log,
		Config:     config.Config,
	})
	lessonSessionHandler := handler.NewLessonSessionHandler(config.Validator, config.Log, lessonSessionUsecase)

	route.Setup(&route.RouteConfig{
		Api:                  config.Api,
		Middleware:           mid,
		LessonSessionHandler: lessonSessionHandler,
	})

	return manager
}

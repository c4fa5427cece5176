package route

import (
	"github.com/danuarta/lingolearn-be/internal/delivery/http/handler"
	"github.com/danuarta/lingolearn-be/internal/delivery/http/middleware"
	"github.com/gofiber/fiber/v2"
)

func SetupLessonSessionRoute(api *fiber.App, handler handler.LessonSessionHandler, m *middleware.Middleware) {
	lessonRouter := api.Group("/lessons")
	{
		lessonRouter.Post("/", handler.UpsertLesson)
		lessonRouter.Get("/", handler.ListLessons)
		lessonRouter.Get("/:lesson_id", handler.GetLesson)
	}

	sessionRouter := api.Group("/sessions")
	{
		sessionRouter.Post("/", handler.OpenSession)
		sessionRouter.Get("/:session_id", handler.GetSession)
		sessionRouter.Delete("/:session_id", handler.CloseSession)
		sessionRouter.Post("/:session_id/answers", handler.SubmitAnswer)
		sessionRouter.Get("/:session_id/answers", handler.GetSessionAnswers)
		sessionRouter.Post("/:session_id/advance", handler.Advance)
		sessionRouter.Post("/:session_id/retreat", handler.Retreat)
		sessionRouter.Post("/:session_id/navigate", handler.Navigate)
		sessionRouter.Post("/:session_id/redo", handler.Redo)
	}
}

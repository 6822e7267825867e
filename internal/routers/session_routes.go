package routers

import (
	"net/http"

	"codinground/internal/handlers"
	"codinground/internal/middleware"
	"codinground/internal/models"

	"github.com/go-chi/chi/v5"
)

func SessionRoutes(router *chi.Mux, sessionHandler *handlers.SessionHandler, auth func(http.Handler) http.Handler) {
	router.Route("/api/v1/coding/sessions/{session_id}", func(r chi.Router) {
		r.Use(auth)
		r.Post("/load", sessionHandler.LoadHandler)
		r.Get("/", sessionHandler.GetHandler)
		r.Delete("/", sessionHandler.DeleteHandler)
		r.Post("/start", sessionHandler.StartHandler)
		r.With(middleware.ValidateRequest[*models.SendMessageRequest]()).Post("/messages", sessionHandler.SendMessageHandler)
		r.With(middleware.ValidateRequest[*models.UpdateCodeRequest]()).Put("/code", sessionHandler.UpdateCodeHandler)
		r.Post("/questions/{index}", sessionHandler.SelectQuestionHandler)
		r.Post("/run", sessionHandler.RunCodeHandler)
		r.With(middleware.ValidateRequest[*models.SubmitRequest]()).Post("/submit", sessionHandler.SubmitHandler)
		r.Post("/finish", sessionHandler.FinishHandler)
		r.Get("/stream", sessionHandler.StreamHandler)
	})
}

package routers

import (
	"codinground/internal/handlers"
	"codinground/internal/middleware"
	"codinground/internal/models"

	"github.com/go-chi/chi/v5"
)

// BackendRoutes mounts the interview-backend endpoints served from the local store.
func BackendRoutes(router *chi.Mux, backendHandler *handlers.BackendHandler) {
	router.Route("/interview", func(r chi.Router) {
		r.With(middleware.ValidateRequest[*models.SeedQuestionsRequest]()).Post("/coding-questions/{session_id}/", backendHandler.SeedQuestions)
		r.Get("/get-coding-questions/{session_id}/", backendHandler.GetCodingQuestions)
		r.Post("/coding-assistance/{session_id}/{problem_id}/", backendHandler.IncrementAssistance)
		r.With(middleware.ValidateRequest[*models.ScoreRequest]()).Post("/add-coding-scores/{session_id}/{problem_id}/", backendHandler.SaveScore)
		r.With(middleware.ValidateRequest[*models.SessionStatusRequest]()).Patch("/update-session-status/{session_id}/", backendHandler.UpdateSessionStatus)
		r.With(middleware.ValidateRequest[*models.ContinueSessionRequest]()).Post("/continue-session/{session_id}/", backendHandler.ContinueSession)
	})
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/surveyor-app/surveyor/internal/middleware"
	"github.com/surveyor-app/surveyor/internal/services"
)

// Options carries the optional collaborators of a Router. Zero values are fine.
type Options struct {
	Recorder services.Recorder
	Observer middleware.RequestObserver
	Logger   *slog.Logger
}

type Router struct {
	surveys   *services.SurveyService
	responses *services.ResponseService
	invites   *services.InviteService
	questions *services.QuestionService
	exports   *services.ExportService
	analytics *services.AnalyticsService
	auth      *services.AuthService

	authn *middleware.Authenticator
	obs   middleware.RequestObserver
	log   *slog.Logger
}

func NewRouter(store Store, authn *middleware.Authenticator, opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Router{
		surveys:   services.NewSurveyService(store),
		responses: services.NewResponseService(store),
		invites:   services.NewInviteService(store),
		questions: services.NewQuestionService(store),
		exports:   services.NewExportService(store),
		analytics: services.NewAnalyticsService(store),
		auth:      services.NewAuthService(store, authn.Sign),
		authn:     authn,
		obs:       opts.Observer,
		log:       logger,
	}
	rt.responses.SetRecorder(opts.Recorder)
	rt.invites.SetRecorder(opts.Recorder)
	return rt
}

type access int

const (
	optionalAuth access = iota
	requiredAuth
)

// handle registers h under pattern. Every route parses the bearer token when
// present; requiredAuth routes also reject anonymous callers.
func (rt *Router) handle(mux *http.ServeMux, pattern string, a access, h http.HandlerFunc) {
	var next http.Handler = h
	if a == requiredAuth {
		next = middleware.RequireAuth(next)
	}
	mux.Handle(pattern, middleware.Instrument(rt.obs, pattern, rt.authn.WithAuth(next)))
}

func (rt *Router) Register(mux *http.ServeMux) {
	rt.handle(mux, "POST /api/auth/login", optionalAuth, rt.handleLogin)
	rt.handle(mux, "GET /api/auth/me", requiredAuth, rt.handleMe)

	rt.handle(mux, "GET /api/surveys", optionalAuth, rt.handleListSurveys)
	rt.handle(mux, "POST /api/surveys", requiredAuth, rt.handleCreateSurvey)
	rt.handle(mux, "GET /api/surveys/{id}", optionalAuth, rt.handleGetSurvey)
	rt.handle(mux, "PUT /api/surveys/{id}", requiredAuth, rt.handleUpdateSurvey)
	rt.handle(mux, "DELETE /api/surveys/{id}", requiredAuth, rt.handleDeleteSurvey)
	rt.handle(mux, "POST /api/surveys/{id}/publish", requiredAuth, rt.transition(rt.surveys.Publish))
	rt.handle(mux, "POST /api/surveys/{id}/close", requiredAuth, rt.transition(rt.surveys.Close))
	rt.handle(mux, "POST /api/surveys/{id}/archive", requiredAuth, rt.transition(rt.surveys.Archive))
	rt.handle(mux, "POST /api/surveys/{id}/unarchive", requiredAuth, rt.transition(rt.surveys.Unarchive))
	rt.handle(mux, "DELETE /api/surveys/{id}/responses", requiredAuth, rt.handleDeleteResponses)
	rt.handle(mux, "GET /api/surveys/{id}/stats", requiredAuth, rt.handleStats)

	rt.handle(mux, "POST /api/responses/{surveyId}", optionalAuth, rt.handleSubmit)
	rt.handle(mux, "POST /api/responses/{surveyId}/save", optionalAuth, rt.handleSaveDraft)
	rt.handle(mux, "GET /api/responses/{surveyId}", requiredAuth, rt.handleListResponses)
	// resume/{token} and {surveyId}/export overlap as ServeMux patterns.
	rt.handle(mux, "GET /api/responses/{first}/{second}", optionalAuth, rt.handleResponseSubresource)

	rt.handle(mux, "POST /api/invites/create", requiredAuth, rt.handleCreateInvites)
	rt.handle(mux, "GET /api/invites/validate/{token}", optionalAuth, rt.handleValidateInvite)
	rt.handle(mux, "GET /api/invites/survey/{surveyId}", requiredAuth, rt.handleListInvites)

	rt.handle(mux, "GET /api/questions", requiredAuth, rt.handleListQuestions)
	rt.handle(mux, "POST /api/questions", requiredAuth, rt.handleCreateQuestion)
	rt.handle(mux, "PUT /api/questions/reorder", requiredAuth, rt.handleReorderQuestions)
	rt.handle(mux, "GET /api/questions/{id}", requiredAuth, rt.handleGetQuestion)
	rt.handle(mux, "PUT /api/questions/{id}", requiredAuth, rt.handleUpdateQuestion)
	rt.handle(mux, "DELETE /api/questions/{id}", requiredAuth, rt.handleDeleteQuestion)
	rt.handle(mux, "PATCH /api/questions/{id}/favorite", requiredAuth, rt.handleToggleFavorite)
	rt.handle(mux, "POST /api/questions/{id}/use", requiredAuth, rt.handleMarkUsed)
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/surveyor-app/surveyor/internal/models"
	"github.com/surveyor-app/surveyor/internal/services"
)

func surveyViews(list []*models.Survey) []services.SurveyView {
	out := make([]services.SurveyView, 0, len(list))
	for _, sv := range list {
		out = append(out, services.NewSurveyView(sv))
	}
	return out
}

// GET /api/surveys?search=&status=&sort=&public=
func (rt *Router) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	public, _ := strconv.ParseBool(q.Get("public"))
	list, err := rt.surveys.List(r.Context(), principal(r), services.SurveyListFilter{
		Search: q.Get("search"),
		Status: q.Get("status"),
		Sort:   q.Get("sort"),
		Public: public,
	})
	if err != nil {
		rt.writeError(w, r, "surveys.list", err)
		return
	}
	writeJSON(w, http.StatusOK, surveyViews(list))
}

// POST /api/surveys
func (rt *Router) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := decodeBody(w, r, &raw, false); err != nil {
		rt.writeError(w, r, "surveys.create", err)
		return
	}
	sv, err := rt.surveys.Create(r.Context(), principal(r), raw)
	if err != nil {
		rt.writeError(w, r, "surveys.create", err)
		return
	}
	writeJSON(w, http.StatusCreated, services.NewSurveyView(sv))
}

// GET /api/surveys/{id}
func (rt *Router) handleGetSurvey(w http.ResponseWriter, r *http.Request) {
	sv, err := rt.surveys.GetVisible(r.Context(), r.PathValue("id"), principal(r))
	if err != nil {
		rt.writeError(w, r, "surveys.get", err)
		return
	}
	writeJSON(w, http.StatusOK, services.NewSurveyView(sv))
}

// PUT /api/surveys/{id}
func (rt *Router) handleUpdateSurvey(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := decodeBody(w, r, &raw, false); err != nil {
		rt.writeError(w, r, "surveys.update", err)
		return
	}
	sv, err := rt.surveys.Update(r.Context(), r.PathValue("id"), principal(r), raw)
	if err != nil {
		rt.writeError(w, r, "surveys.update", err)
		return
	}
	writeJSON(w, http.StatusOK, services.NewSurveyView(sv))
}

// DELETE /api/surveys/{id}
func (rt *Router) handleDeleteSurvey(w http.ResponseWriter, r *http.Request) {
	if err := rt.surveys.Delete(r.Context(), r.PathValue("id"), principal(r)); err != nil {
		rt.writeError(w, r, "surveys.delete", err)
		return
	}
	writeOK(w, nil)
}

type transitionFunc func(ctx context.Context, id string, p *services.Principal) (*models.Survey, error)

// transition serves POST /api/surveys/{id}/<publish|close|archive|unarchive>.
func (rt *Router) transition(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sv, err := fn(r.Context(), r.PathValue("id"), principal(r))
		if err != nil {
			rt.writeError(w, r, "surveys.transition", err)
			return
		}
		writeJSON(w, http.StatusOK, services.NewSurveyView(sv))
	}
}

// DELETE /api/surveys/{id}/responses
func (rt *Router) handleDeleteResponses(w http.ResponseWriter, r *http.Request) {
	n, err := rt.surveys.DeleteResponses(r.Context(), r.PathValue("id"), principal(r))
	if err != nil {
		rt.writeError(w, r, "surveys.delete_responses", err)
		return
	}
	writeOK(w, map[string]any{"deleted": n})
}

// GET /api/surveys/{id}/stats
func (rt *Router) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.analytics.Stats(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, "surveys.stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/surveyor-app/surveyor/internal/models"
	"github.com/surveyor-app/surveyor/internal/services"
)

func savedQuestionResponse(w http.ResponseWriter, status int, q *models.SavedQuestion) {
	writeJSON(w, status, services.NewSavedQuestionView(q))
}

// GET /api/questions?search=&type=&favorite=&sort=
func (rt *Router) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	favorite, _ := strconv.ParseBool(q.Get("favorite"))
	list, err := rt.questions.List(r.Context(), principal(r), services.SavedQuestionFilter{
		Search:   q.Get("search"),
		Type:     q.Get("type"),
		Favorite: favorite,
		Sort:     q.Get("sort"),
	})
	if err != nil {
		rt.writeError(w, r, "questions.list", err)
		return
	}
	out := make([]services.SavedQuestionView, 0, len(list))
	for _, sq := range list {
		out = append(out, services.NewSavedQuestionView(sq))
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/questions
func (rt *Router) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := decodeBody(w, r, &raw, false); err != nil {
		rt.writeError(w, r, "questions.create", err)
		return
	}
	q, err := rt.questions.Create(r.Context(), principal(r), raw)
	if err != nil {
		rt.writeError(w, r, "questions.create", err)
		return
	}
	savedQuestionResponse(w, http.StatusCreated, q)
}

// GET /api/questions/{id}
func (rt *Router) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := rt.questions.Get(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, "questions.get", err)
		return
	}
	savedQuestionResponse(w, http.StatusOK, q)
}

// PUT /api/questions/{id}
func (rt *Router) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := decodeBody(w, r, &raw, false); err != nil {
		rt.writeError(w, r, "questions.update", err)
		return
	}
	q, err := rt.questions.Update(r.Context(), principal(r), r.PathValue("id"), raw)
	if err != nil {
		rt.writeError(w, r, "questions.update", err)
		return
	}
	savedQuestionResponse(w, http.StatusOK, q)
}

// DELETE /api/questions/{id}
func (rt *Router) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := rt.questions.Delete(r.Context(), principal(r), r.PathValue("id")); err != nil {
		rt.writeError(w, r, "questions.delete", err)
		return
	}
	writeOK(w, nil)
}

// PUT /api/questions/reorder
func (rt *Router) handleReorderQuestions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Order json.RawMessage `json:"order"`
	}
	if err := decodeBody(w, r, &body, false); err != nil {
		rt.writeError(w, r, "questions.reorder", err)
		return
	}
	n, err := rt.questions.Reorder(r.Context(), principal(r), body.Order)
	if err != nil {
		rt.writeError(w, r, "questions.reorder", err)
		return
	}
	writeOK(w, map[string]any{"updated": n})
}

// PATCH /api/questions/{id}/favorite
func (rt *Router) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	q, err := rt.questions.ToggleFavorite(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, "questions.favorite", err)
		return
	}
	savedQuestionResponse(w, http.StatusOK, q)
}

// POST /api/questions/{id}/use
func (rt *Router) handleMarkUsed(w http.ResponseWriter, r *http.Request) {
	q, err := rt.questions.MarkUsed(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, "questions.use", err)
		return
	}
	savedQuestionResponse(w, http.StatusOK, q)
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/surveyor-app/surveyor/internal/middleware"
	"github.com/surveyor-app/surveyor/internal/services"
)

type submitBody struct {
	Answers     json.RawMessage `json:"answers"`
	InviteToken string          `json:"inviteToken"`
	ResumeToken string          `json:"resumeToken"`
}

// POST /api/responses/{surveyId}
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body submitBody
	if err := decodeBody(w, r, &body, false); err != nil {
		rt.writeError(w, r, "responses.submit", err)
		return
	}
	resp, err := rt.responses.Submit(r.Context(), services.SubmitRequest{
		SurveyID:    r.PathValue("surveyId"),
		Principal:   principal(r),
		Answers:     body.Answers,
		InviteToken: body.InviteToken,
		ResumeToken: body.ResumeToken,
		IP:          middleware.ClientIP(r),
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		rt.writeError(w, r, "responses.submit", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": resp.ID})
}

// POST /api/responses/{surveyId}/save
func (rt *Router) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var body submitBody
	if err := decodeBody(w, r, &body, false); err != nil {
		rt.writeError(w, r, "responses.save", err)
		return
	}
	token, err := rt.responses.SaveDraft(r.Context(), services.DraftRequest{
		SurveyID:    r.PathValue("surveyId"),
		Answers:     body.Answers,
		ResumeToken: body.ResumeToken,
		IP:          middleware.ClientIP(r),
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		rt.writeError(w, r, "responses.save", err)
		return
	}
	writeOK(w, map[string]any{"resumeToken": token})
}

// GET /api/responses/{surveyId}
func (rt *Router) handleListResponses(w http.ResponseWriter, r *http.Request) {
	list, err := rt.responses.List(r.Context(), principal(r), r.PathValue("surveyId"))
	if err != nil {
		rt.writeError(w, r, "responses.list", err)
		return
	}
	out := make([]services.ResponseView, 0, len(list))
	for _, resp := range list {
		out = append(out, services.NewResponseView(resp))
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/responses/resume/{token} and GET /api/responses/{surveyId}/export
func (rt *Router) handleResponseSubresource(w http.ResponseWriter, r *http.Request) {
	first, second := r.PathValue("first"), r.PathValue("second")
	switch {
	case first == "resume":
		rt.resumeDraft(w, r, second)
	case second == "export":
		rt.exportCSV(w, r, first)
	default:
		http.NotFound(w, r)
	}
}

func (rt *Router) resumeDraft(w http.ResponseWriter, r *http.Request, token string) {
	draft, err := rt.responses.ResumeDraft(r.Context(), token)
	if err != nil {
		rt.writeError(w, r, "responses.resume", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (rt *Router) exportCSV(w http.ResponseWriter, r *http.Request, surveyID string) {
	res, err := rt.exports.ExportCSV(r.Context(), principal(r), surveyID)
	if err != nil {
		rt.writeError(w, r, "responses.export", err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+res.Filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Data); err != nil {
		rt.log.Warn("export write failed", "survey_id", surveyID, "err", err)
	}
}

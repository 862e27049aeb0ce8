package api

import (
	"encoding/json"
	"net/http"

	"github.com/surveyor-app/surveyor/internal/models"
	"github.com/surveyor-app/surveyor/internal/services"
)

type inviteBody struct {
	SurveyID  string          `json:"surveyId"`
	MaxUses   *int            `json:"maxUses"`
	ExpiresAt json.RawMessage `json:"expiresAt"`
	Count     int             `json:"count"`
}

func inviteViews(list []*models.Invite) []services.InviteView {
	out := make([]services.InviteView, 0, len(list))
	for _, inv := range list {
		out = append(out, services.NewInviteView(inv))
	}
	return out
}

// POST /api/invites/create
func (rt *Router) handleCreateInvites(w http.ResponseWriter, r *http.Request) {
	var body inviteBody
	if err := decodeBody(w, r, &body, false); err != nil {
		rt.writeError(w, r, "invites.create", err)
		return
	}
	expires, err := services.ParseTimestamp(body.ExpiresAt)
	if err != nil {
		rt.writeError(w, r, "invites.create", err)
		return
	}
	created, err := rt.invites.Create(r.Context(), principal(r), services.InviteRequest{
		SurveyID:  body.SurveyID,
		MaxUses:   body.MaxUses,
		ExpiresAt: expires,
		Count:     body.Count,
	})
	if err != nil {
		if len(created) > 0 {
			rt.log.Warn("invite batch interrupted", "survey_id", body.SurveyID, "created", len(created), "err", err)
		}
		rt.writeError(w, r, "invites.create", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"invites": inviteViews(created)})
}

// GET /api/invites/validate/{token}
func (rt *Router) handleValidateInvite(w http.ResponseWriter, r *http.Request) {
	check, err := rt.invites.Validate(r.Context(), r.PathValue("token"))
	if err != nil {
		rt.writeError(w, r, "invites.validate", err)
		return
	}
	body := map[string]any{"valid": check.Valid, "reason": check.Reason, "invite": nil}
	if check.Invite != nil {
		body["invite"] = services.NewInviteView(check.Invite)
	}
	writeJSON(w, http.StatusOK, body)
}

// GET /api/invites/survey/{surveyId}
func (rt *Router) handleListInvites(w http.ResponseWriter, r *http.Request) {
	list, err := rt.invites.ListBySurvey(r.Context(), principal(r), r.PathValue("surveyId"))
	if err != nil {
		rt.writeError(w, r, "invites.list", err)
		return
	}
	writeJSON(w, http.StatusOK, inviteViews(list))
}

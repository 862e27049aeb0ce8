package api

import "net/http"

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := decodeBody(w, r, &body, false); err != nil {
		rt.writeError(w, r, "auth.login", err)
		return
	}
	res, err := rt.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		rt.writeError(w, r, "auth.login", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/auth/me
func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := rt.auth.Me(r.Context(), principal(r))
	if err != nil {
		rt.writeError(w, r, "auth.me", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

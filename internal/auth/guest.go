package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	authmw "github.com/mind-engage/mindengage-assess/internal/auth/middleware"
)

const guestCookie = "me_guest_id"

// GuestLoginHandler issues student tokens for anonymous learners of one
// tenant. The guest id is kept in a cookie so a browser gets the same
// identity, and with it the same attempts, on every visit.
func GuestLoginHandler(a *authmw.AuthService, tenantID string) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		UserID      string `json:"user_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID := ""
		if c, err := r.Cookie(guestCookie); err == nil && strings.HasPrefix(c.Value, "guest|") {
			userID = c.Value
		}
		if userID == "" {
			userID = "guest|" + uuid.NewString()
		}

		tok, err := a.IssueJWT(authmw.Claims{Sub: userID, Role: "student", TenantID: tenantID})
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		// Persist (or refresh) guest identity for this browser
		http.SetCookie(w, &http.Cookie{
			Name:     guestCookie,
			Value:    userID,
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, UserID: userID})
	}
}

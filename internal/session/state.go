// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package session

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"
)

const (
	// StateCookieName carries the OAuth state between the redirect to the
	// provider and the callback.
	StateCookieName = "vamp_oauth_state"

	// StateTTL bounds how long a sign-in attempt may take.
	StateTTL = 10 * time.Minute
)

// NewState generates a random OAuth state value and stores it in a
// short-lived cookie scoped to the callback path.
func NewState(w http.ResponseWriter, secure bool) (string, error) {
	state, err := generateID()
	if err != nil {
		return "", fmt.Errorf("oauth state: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/auth/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(StateTTL.Seconds()),
	})
	return state, nil
}

// ConsumeState clears the state cookie and reports whether got matches it.
// Each state can be used once.
func ConsumeState(w http.ResponseWriter, r *http.Request, got string, secure bool) bool {
	cookie, err := r.Cookie(StateCookieName)

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/auth/",
		HttpOnly: true,
		Secure:   secure,
		MaxAge:   -1,
	})

	if err != nil || cookie.Value == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(got)) == 1
}

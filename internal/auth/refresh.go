package auth

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

const refreshTokenFile = "refresh_tokens.json"

type refreshToken struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

var refreshTokenStore = map[string]refreshToken{}
var mu sync.Mutex

// SetRefreshToken associates an opaque refresh token with a username for 7 days.
func SetRefreshToken(token, username string) {
	mu.Lock()
	defer mu.Unlock()
	refreshTokenStore[token] = refreshToken{
		Username:  username,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	saveRefreshTokens()
}

// ConsumeRefreshToken returns the username for a valid token and deletes it,
// so every refresh rotates the token.
func ConsumeRefreshToken(token string) (string, bool) {
	mu.Lock()
	defer mu.Unlock()
	if len(refreshTokenStore) == 0 {
		loadRefreshTokens()
	}

	rt, ok := refreshTokenStore[token]
	if !ok || time.Now().After(rt.ExpiresAt) {
		return "", false
	}
	delete(refreshTokenStore, token)
	saveRefreshTokens()
	return rt.Username, true
}

// StartRefreshTokenCleaner drops expired tokens on the given interval.
func StartRefreshTokenCleaner(interval time.Duration) {
	for {
		time.Sleep(interval)
		mu.Lock()
		changed := false
		for token, rt := range refreshTokenStore {
			if time.Now().After(rt.ExpiresAt) {
				delete(refreshTokenStore, token)
				changed = true
			}
		}
		if changed {
			saveRefreshTokens()
		}
		mu.Unlock()
	}
}

func loadRefreshTokens() {
	data, err := os.ReadFile(refreshTokenFile)
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, &refreshTokenStore)
}

func saveRefreshTokens() {
	data, err := json.MarshalIndent(refreshTokenStore, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(refreshTokenFile, data, 0600)
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/lwei/shoplite/internal/auth"
)

type identity struct {
	UserID   int
	Username string
	IsAdmin  bool
}

// identityFromRequest decodes the caller's JWT claims. The auth middleware
// has already validated the token on protected routes.
func identityFromRequest(r *http.Request) (identity, error) {
	authorization := r.Header.Get("Authorization")

	token, claims, err := auth.TokenClaims(authorization)
	if err != nil {
		return identity{}, err
	}
	if !token.Valid {
		return identity{}, errors.New("invalid token")
	}

	sub, _ := claims["sub"].(float64)
	username, _ := claims["username"].(string)
	isAdmin, _ := claims["admin"].(bool)
	return identity{UserID: int(sub), Username: username, IsAdmin: isAdmin}, nil
}

// readJSON tries to read the body of a request and converts it into JSON
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	maxBytes := 1048576 // one megabyte
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	err := dec.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to read JSON: %w", err)
	}

	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must have only a single json value")
	}

	return nil
}

// writeJSON takes a response status code and arbitrary data and writes a json response to the client
func writeJSON(w http.ResponseWriter, status int, data any, headers ...http.Header) error {
	out, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if len(headers) > 0 {
		for key, value := range headers[0] {
			w.Header()[key] = value
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(out)
	if err != nil {
		return fmt.Errorf("failed to write to response: %w", err)
	}

	return nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseDateRange reads start_date/end_date query parameters (YYYY-MM-DD) and
// returns the inclusive range [start 00:00:00, end 23:59:59.999...]. Both
// default to today; an end date in the future is clamped to today and a start
// after the end collapses to the end, matching the dashboard's behavior.
func parseDateRange(r *http.Request) (time.Time, time.Time) {
	today := time.Now()
	start, end := today, today

	if s := r.URL.Query().Get("start_date"); s != "" {
		if ts, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
			start = ts
		}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		if ts, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
			end = ts
		}
	}

	if dayStart(end).After(dayStart(today)) {
		end = today
	}
	if dayStart(start).After(dayStart(end)) {
		start = end
	}
	return dayStart(start), dayEnd(end)
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

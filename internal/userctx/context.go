package userctx

import (
	"context"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const (
	userIDContextKey        contextKey = "user_id"
	authenticatedContextKey contextKey = "authenticated"
	locationContextKey      contextKey = "location"
)

// TimezoneHeader carries the client's IANA zone, e.g. "Europe/Berlin".
const TimezoneHeader = "X-Timezone"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok
}

// WithAuthenticated marks whether the user id came from a verified token.
func WithAuthenticated(ctx context.Context, authenticated bool) context.Context {
	return context.WithValue(ctx, authenticatedContextKey, authenticated)
}

func IsAuthenticated(ctx context.Context) bool {
	v, _ := ctx.Value(authenticatedContextKey).(bool)
	return v
}

func WithLocation(ctx context.Context, loc *time.Location) context.Context {
	return context.WithValue(ctx, locationContextKey, loc)
}

// Location returns the request time zone, or UTC when none was attached.
func Location(ctx context.Context) *time.Location {
	if loc, ok := ctx.Value(locationContextKey).(*time.Location); ok && loc != nil {
		return loc
	}
	return time.UTC
}

// Today formats now in the request time zone as YYYY-MM-DD.
func Today(ctx context.Context, now time.Time) string {
	return now.In(Location(ctx)).Format("2006-01-02")
}

// TimezoneMiddleware attaches the X-Timezone location, falling back to def
// when the header is missing or names an unknown zone.
func TimezoneMiddleware(def *time.Location) func(http.Handler) http.Handler {
	if def == nil {
		def = time.UTC
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := def
			if name := strings.TrimSpace(r.Header.Get(TimezoneHeader)); name != "" {
				if parsed, err := time.LoadLocation(name); err == nil {
					loc = parsed
				}
			}
			next.ServeHTTP(w, r.WithContext(WithLocation(r.Context(), loc)))
		})
	}
}

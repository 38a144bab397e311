package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/schema"
	"github.com/rs/zerolog/log"

	apperrors "github.com/openmarket/market-server/internal/errors"
	"github.com/openmarket/market-server/internal/httputil"
)

const dashboardPath = "/admin/dashboard"

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	if appErr, ok := apperrors.AsAppError(err); !ok || httputil.StatusFromCode(appErr.Code) >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	httputil.WriteError(w, err)
}

// decodeInput reads a JSON body or an HTML form into dst. Form fields are
// matched by their schema tags.
func decodeInput(r *http.Request, dst any) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return apperrors.ValidationError("Invalid request body").WithCause(err)
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return apperrors.ValidationError("Invalid form body").WithCause(err)
	}
	if err := formDecoder.Decode(dst, r.PostForm); err != nil {
		return apperrors.ValidationError("Invalid form body").WithCause(err)
	}
	return nil
}

// redirectWithFlash sends browsers back to the dashboard with a one-line
// notice or error.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, key, message string) {
	http.Redirect(w, r, dashboardPath+"?"+url.Values{key: {message}}.Encode(), http.StatusSeeOther)
}

// respond answers a console action. JSON clients get data or the mapped
// error; browsers are redirected to the dashboard.
func respond(w http.ResponseWriter, r *http.Request, data any, notice string, err error) {
	if httputil.WantsJSON(r) {
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
		return
	}

	if err != nil {
		redirectWithFlash(w, r, "error", flashMessage(err))
		return
	}
	redirectWithFlash(w, r, "notice", notice)
}

func flashMessage(err error) string {
	appErr, ok := apperrors.AsAppError(err)
	if !ok || httputil.StatusFromCode(appErr.Code) >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("console action failed")
		return "Something went wrong, please try again"
	}
	return appErr.Message
}

// Accepted layouts for the suspension end: RFC 3339 from API clients and the
// value of an HTML datetime-local input, read as UTC.
var endsAtLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02T15:04:05"}

func parseEndsAt(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range endsAtLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.InvalidInput("ends_at", "must be an RFC 3339 or datetime-local timestamp")
}

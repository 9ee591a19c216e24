package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

var validate = validator.New()

type errorBody struct {
	Error       string   `json:"error"`
	Code        string   `json:"code"`
	Rule        string   `json:"rule,omitempty"`
	QuestionID  string   `json:"question_id,omitempty"`
	QuestionIDs []string `json:"question_ids,omitempty"`
	Fields      []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain error categories onto status codes. Anything
// uncategorized is logged and reported as a 500 without details.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	body := errorBody{Error: err.Error()}
	var status int
	switch {
	case errors.Is(err, exam.ErrNotFound):
		status, body.Code = http.StatusNotFound, "not_found"
	case errors.Is(err, exam.ErrConflict):
		status, body.Code = http.StatusConflict, "conflict"
	case errors.Is(err, exam.ErrInvalidState):
		status, body.Code = http.StatusConflict, "invalid_state"
	case errors.Is(err, exam.ErrValidation):
		status, body.Code = http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, exam.ErrConfiguration):
		status, body.Code = http.StatusUnprocessableEntity, "configuration"
	default:
		log.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"})
		return
	}

	var ve *exam.ValidationError
	if errors.As(err, &ve) {
		body.Rule, body.QuestionID = ve.Rule, ve.QuestionID
	}
	var ce *exam.ConfigError
	if errors.As(err, &ce) {
		body.QuestionIDs = ce.QuestionIDs
	}
	writeJSON(w, status, body)
}

// decodeBody decodes the JSON request body into dst and runs its validate
// tags. Failures are written to w; ok reports whether the handler may go on.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json: " + err.Error(), Code: "bad_request"})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		body := errorBody{Error: "invalid request", Code: "validation"}
		var fe validator.ValidationErrors
		if errors.As(err, &fe) {
			for _, f := range fe {
				body.Fields = append(body.Fields, f.Namespace()+":"+f.Tag())
			}
		}
		writeJSON(w, http.StatusUnprocessableEntity, body)
		return false
	}
	return true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

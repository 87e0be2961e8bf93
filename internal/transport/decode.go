package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeJSON reads a JSON body into dst and runs struct validation. On
// failure it writes a problem response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, true)
}

// DecodeWebhook is DecodeJSON for payloads shaped by another system;
// fields this service does not model are ignored.
func DecodeWebhook(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, false)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, strict bool) bool {
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
		return false
	}
	if errs := Validate(dst); errs != nil {
		WriteProblem(w, http.StatusUnprocessableEntity, "validation failed", "request body failed validation", errs)
		return false
	}
	return true
}

// Validate runs validator tags on v and groups failures by field.
func Validate(v any) map[string][]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string][]string{"_": {err.Error()}}
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		msg := fe.Tag()
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		out[field] = append(out[field], msg)
	}
	return out
}

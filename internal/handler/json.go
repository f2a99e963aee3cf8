package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/msomdec/estate-listings/internal/domain"
)

// maxJSONBody caps JSON request bodies. Multipart bodies have their own limit.
const maxJSONBody = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so messages match what clients sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// writeServiceError maps a service error onto its HTTP status. Unclassified
// errors are logged under action and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, action string, err error) {
	for _, m := range errorStatuses {
		if errors.Is(err, m.sentinel) {
			writeError(w, m.status, publicMessage(err, m.sentinel, m.fallback))
			return
		}
	}
	slog.Error(action, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

var errorStatuses = []struct {
	sentinel error
	status   int
	fallback string
}{
	{domain.ErrInvalidInput, http.StatusBadRequest, "Invalid request"},
	{domain.ErrDuplicateEmail, http.StatusBadRequest, "User already exists"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "Not authorized"},
	{domain.ErrForbidden, http.StatusForbidden, "Not allowed"},
	{domain.ErrNotFound, http.StatusNotFound, "Not found"},
}

// publicMessage returns the detail a service attached after the sentinel,
// e.g. "title and location are required" from "invalid input: title and
// location are required". Context added by outer wrapping is not exposed.
func publicMessage(err, sentinel error, fallback string) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		if detail := msg[i+len(prefix):]; detail != "" {
			return upperFirst(detail)
		}
	}
	return fallback
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// readJSON decodes the request body into dst and runs struct validation.
// Both failures come back wrapped in domain.ErrInvalidInput.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: request body is not valid JSON", domain.ErrInvalidInput)
	}
	if reflect.Indirect(reflect.ValueOf(dst)).Kind() != reflect.Struct {
		return nil
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" is not valid")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

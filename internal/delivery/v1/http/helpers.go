package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jimlawless/whereami"
)

const maxBodySize = 1 << 20

type ErrorResponse struct {
	Code      int               `json:"code"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable"`
	Details   map[string]string `json:"details,omitempty"`
}

func NewErrorResponse(code int, message string, retryable bool) *ErrorResponse {
	return &ErrorResponse{
		Code:      code,
		Message:   message,
		Retryable: retryable,
	}
}

// ValidationError - тело запроса не прошло проверку. Details уходят клиенту как есть.
type ValidationError struct {
	Details map[string]string
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Details))
	for field, msg := range v.Details {
		parts = append(parts, field+" "+msg)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (v *ValidationError) Unwrap() error {
	return e.ErrStatusBadRequest
}

// ToHTTPResponse возвращает код, сообщение и признак того, что запрос имеет смысл повторить.
func ToHTTPResponse(err error) (int, string, bool) {
	switch {
	case errors.Is(err, e.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable, e.ErrCatalogUnavailable.Error(), true
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error(), false
	case errors.Is(err, e.ErrInvalidProductID):
		return http.StatusBadRequest, e.ErrInvalidProductID.Error(), false
	case errors.Is(err, e.ErrInvalidLimit):
		return http.StatusBadRequest, e.ErrInvalidLimit.Error(), false
	case errors.Is(err, e.ErrCategoryRequired):
		return http.StatusBadRequest, e.ErrCategoryRequired.Error(), false
	case errors.Is(err, e.ErrMalformedJSONBody):
		return http.StatusBadRequest, e.ErrMalformedJSONBody.Error(), false
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error(), false
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error(), false
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg, retryable := ToHTTPResponse(err)
	resp := NewErrorResponse(code, msg, retryable)

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		resp.Details = vErr.Details
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// decodeJSONBody читает JSON не больше maxBodySize и проверяет теги validate.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer io.Copy(io.Discard, r.Body)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return e.Wrap(err.Error(), e.ErrMalformedJSONBody)
	}

	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return e.Wrap(whereami.WhereAmI(), e.ErrStatusBadRequest)
	}

	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Field()] = validationMessage(fe)
	}
	return &ValidationError{Details: details}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}

func productIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.Wrap(chi.URLParam(r, "id"), e.ErrInvalidProductID)
	}
	return id, nil
}

func limitParam(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > max {
		return 0, e.Wrap(raw, e.ErrInvalidLimit)
	}
	return n, nil
}

package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ariefcatur/clothify-orders/internal/inventory"
	"github.com/ariefcatur/clothify-orders/internal/orders"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps domain errors to status codes. Anything it does not
// recognise is logged and answered with the generic fallback message.
func writeDomainError(w http.ResponseWriter, log *zap.Logger, err error, fallback string) {
	var se *inventory.StockError
	switch {
	case errors.As(err, &se):
		writeErr(w, http.StatusBadRequest, se.Error())
	case errors.Is(err, orders.ErrValidation),
		errors.Is(err, orders.ErrInvalidStatus),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrInvalidProduct):
		writeErr(w, http.StatusBadRequest, capitalize(err.Error()))
	case errors.Is(err, inventory.ErrProductNotFound),
		errors.Is(err, orders.ErrOrderNotFound):
		writeErr(w, http.StatusNotFound, capitalize(err.Error()))
	default:
		log.Error(strings.ToLower(fallback), zap.Error(err))
		writeErr(w, http.StatusInternalServerError, fallback)
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind decodes the JSON body into out and validates it. On failure it has
// already written the 400 response.
func bind(w http.ResponseWriter, r *http.Request, v *validator.Validate, out any, invalidMsg string) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	if err := v.Struct(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  invalidMsg,
			"fields": fieldErrors(err),
		})
		return false
	}
	return true
}

func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		out["body"] = err.Error()
		return out
	}
	for _, fe := range ve {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		out[ns] = fe.Tag()
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

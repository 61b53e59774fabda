package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phenrril/storefront/internal/domain"
)

const maxBody = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string { return "datos inválidos" }
func (e *validationError) Unwrap() error { return domain.ErrInvalid }

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("debe tener al menos %s caracteres", fe.Param())
		}
		return fmt.Sprintf("debe ser como mínimo %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("debe tener como máximo %s caracteres", fe.Param())
		}
		return fmt.Sprintf("debe ser como máximo %s", fe.Param())
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "uuid":
		return "debe ser un UUID válido"
	case "url":
		return "debe ser una URL válida"
	}
	return "inválido (" + fe.Tag() + ")"
}

// check corre las reglas de validación de v.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		fields[ns] = fieldMessage(fe)
	}
	return &validationError{fields: fields}
}

// decode lee el body JSON en dst y lo valida.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Invalid("body vacío")
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return domain.Invalid("body demasiado grande")
		}
		return domain.Invalid("JSON inválido: %v", err)
	}
	return check(dst)
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return queryID(r.PathValue(name), name)
}

func queryID(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Invalid("%s inválido", name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

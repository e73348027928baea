package handler

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/labstack/echo/v4"
)

// Validator plugs go-playground/validator into echo so handlers can call
// c.Validate after c.Bind.  Field names in errors are the json names.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// required and min=1 accept "   "; the services trim before storing.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return &Validator{v: v}
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// fieldError is one entry of a 422 body.
type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func describe(fe validator.FieldError) fieldError {
	out := fieldError{Loc: []string{"body", fe.Field()}}
	switch fe.Tag() {
	case "required":
		out.Msg, out.Type = "Field required", "missing"
	case "notblank":
		out.Msg, out.Type = "String should not be blank", "string_too_short"
	case "email":
		out.Msg, out.Type = "value is not a valid email address", "value_error"
	case "min":
		out.Msg, out.Type = fmt.Sprintf("String should have at least %s characters", fe.Param()), "string_too_short"
	case "max":
		out.Msg, out.Type = fmt.Sprintf("String should have at most %s characters", fe.Param()), "string_too_long"
	case "gt":
		out.Msg, out.Type = fmt.Sprintf("Input should be greater than %s", fe.Param()), "greater_than"
	default:
		out.Msg, out.Type = fmt.Sprintf("failed on the %q rule", fe.Tag()), "value_error"
	}
	return out
}

// bindAndValidate decodes the request body into dst and validates it.  The
// returned error is ready to be handed to respondError.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return &invalidInput{errs: []fieldError{{Loc: []string{"body"}, Msg: "JSON decode error", Type: "json_invalid"}}}
	}
	if err := c.Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if !asValidation(err, &verrs) {
			return err
		}
		out := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, describe(fe))
		}
		return &invalidInput{errs: out}
	}
	return nil
}

func asValidation(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

// invalidInput carries field errors to the 422 response.
type invalidInput struct {
	errs []fieldError
}

func (e *invalidInput) Error() string {
	parts := make([]string, 0, len(e.errs))
	for _, fe := range e.errs {
		parts = append(parts, strings.Join(fe.Loc, ".")+": "+fe.Msg)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func pathError(name, msg string) *invalidInput {
	return &invalidInput{errs: []fieldError{{Loc: []string{"path", name}, Msg: msg, Type: "uuid_parsing"}}}
}

func queryError(name string) *invalidInput {
	return &invalidInput{errs: []fieldError{{Loc: []string{"query", name}, Msg: "Input should be a valid integer", Type: "int_parsing"}}}
}

package checkout

import (
	"reflect"
	"strings"
	"unicode"

	"pharmago/internal/model"

	"github.com/go-playground/validator/v10"
)

// Form is the delivery form submitted at checkout.
type Form struct {
	FullName string `json:"fullName" validate:"required"`
	Address  string `json:"address" validate:"required"`
	Phone    string `json:"phoneNumber" validate:"required,phone10"`
}

// fieldMessages maps "field.tag" to the message shown under the field.
var fieldMessages = map[string]string{
	"fullName.required":    "Full name is required",
	"address.required":     "Address is required",
	"phoneNumber.required": "Phone number is required",
	"phoneNumber.phone10":  "Please enter a valid 10-digit phone number",
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return len(NormalizePhone(fl.Field().String())) == 10
	}); err != nil {
		panic(err)
	}

	return v
}

// NormalizePhone strips every non-digit character.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Trimmed returns the form with surrounding whitespace removed from every field.
func (f Form) Trimmed() Form {
	return Form{
		FullName: strings.TrimSpace(f.FullName),
		Address:  strings.TrimSpace(f.Address),
		Phone:    strings.TrimSpace(f.Phone),
	}
}

// Validate checks the form and returns a *model.ValidationError listing every
// failing field, or nil.
func (f Form) Validate() error {
	trimmed := f.Trimmed()

	err := formValidator.Struct(trimmed)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	verr := model.NewValidationError()
	for _, fe := range fieldErrs {
		msg, known := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !known {
			msg = fe.Error()
		}
		verr.Add(fe.Field(), msg)
	}
	return verr
}

package payment

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joshu-sajeev/upiqr/internal/config"
	"github.com/joshu-sajeev/upiqr/internal/dto"
	"github.com/shopspring/decimal"
)

var upiHandlePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9]+$`)

type fieldRule struct {
	field    string
	optional bool
	tags     string
	messages map[string]string
}

// Validator checks form fields against one required-field policy and
// returns the message for every invalid field. It performs no I/O.
type Validator struct {
	validate *validator.Validate
	policy   config.ValidationPolicy
	rules    []fieldRule
}

func NewValidator(policy config.ValidationPolicy) *Validator {
	v := validator.New()
	_ = v.RegisterValidation("upi_handle", func(fl validator.FieldLevel) bool {
		return upiHandlePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("positive_amount", func(fl validator.FieldLevel) bool {
		return isPositiveAmount(fl.Field().String())
	})

	permissive := policy == config.PolicyPermissive

	return &Validator{
		validate: v,
		policy:   policy,
		rules: []fieldRule{
			{
				field: dto.FieldPayeeID,
				tags:  "upi_handle",
				messages: map[string]string{
					"required":   "UPI ID is required",
					"upi_handle": "Invalid UPI ID",
				},
			},
			{
				field:    dto.FieldPayeeName,
				optional: permissive,
				tags:     "max=" + strconv.Itoa(config.MaxNameLength),
				messages: map[string]string{
					"required": "Name is required",
					"max":      "Name too long",
				},
			},
			{
				field:    dto.FieldAmount,
				optional: permissive,
				tags:     "positive_amount",
				messages: map[string]string{
					"required":        "Amount is required",
					"positive_amount": "Enter a valid positive amount",
				},
			},
			{
				field:    dto.FieldNote,
				optional: permissive,
				tags:     "max=" + strconv.Itoa(config.MaxNoteLength),
				messages: map[string]string{
					"required": "Payment note is required",
					"max":      "Note too long",
				},
			},
		},
	}
}

func (v *Validator) Policy() config.ValidationPolicy {
	return v.policy
}

// Validate trims f and returns the errors for every invalid field.
func (v *Validator) Validate(f dto.FormFields) dto.ValidationErrors {
	errs := dto.ValidationErrors{}
	trimmed := f.Trimmed()

	for _, rule := range v.rules {
		value, _ := trimmed.Get(rule.field)
		if msg := v.check(rule, value); msg != "" {
			errs[rule.field] = msg
		}
	}
	return errs
}

// ValidateField returns the message for a single field, or "" when the
// value is valid. Unknown fields are always valid.
func (v *Validator) ValidateField(field, value string) string {
	for _, rule := range v.rules {
		if rule.field == field {
			return v.check(rule, strings.TrimSpace(value))
		}
	}
	return ""
}

func (v *Validator) check(rule fieldRule, value string) string {
	tags := "required," + rule.tags
	if rule.optional {
		tags = "omitempty," + rule.tags
	}

	err := v.validate.Var(value, tags)
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return rule.messages["required"]
	}

	if msg, ok := rule.messages[verrs[0].Tag()]; ok {
		return msg
	}
	return rule.messages["required"]
}

func isPositiveAmount(s string) bool {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return d.IsPositive()
}

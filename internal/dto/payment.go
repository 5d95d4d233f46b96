package dto

import "strings"

const (
	FieldPayeeID   = "payeeId"
	FieldPayeeName = "payeeName"
	FieldAmount    = "amount"
	FieldNote      = "note"
)

// FormFields holds the four user-entered values of the payment form.
type FormFields struct {
	PayeeID   string `json:"payeeId" form:"payeeId" yaml:"payeeId"`
	PayeeName string `json:"payeeName" form:"payeeName" yaml:"payeeName"`
	Amount    string `json:"amount" form:"amount" yaml:"amount"`
	Note      string `json:"note" form:"note" yaml:"note"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (f FormFields) Trimmed() FormFields {
	return FormFields{
		PayeeID:   strings.TrimSpace(f.PayeeID),
		PayeeName: strings.TrimSpace(f.PayeeName),
		Amount:    strings.TrimSpace(f.Amount),
		Note:      strings.TrimSpace(f.Note),
	}
}

// Get returns the value of the named field and whether the name is known.
func (f FormFields) Get(field string) (string, bool) {
	switch field {
	case FieldPayeeID:
		return f.PayeeID, true
	case FieldPayeeName:
		return f.PayeeName, true
	case FieldAmount:
		return f.Amount, true
	case FieldNote:
		return f.Note, true
	}
	return "", false
}

// Set assigns the named field. It reports false for unknown field names.
func (f *FormFields) Set(field, value string) bool {
	switch field {
	case FieldPayeeID:
		f.PayeeID = value
	case FieldPayeeName:
		f.PayeeName = value
	case FieldAmount:
		f.Amount = value
	case FieldNote:
		f.Note = value
	default:
		return false
	}
	return true
}

// ValidationErrors maps a field name to its message. A missing key means
// the field is valid.
type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Get(field string) string {
	return v[field]
}

// Fields converts the errors to the map shape carried by common.APIError.
func (v ValidationErrors) Fields() map[string]any {
	if len(v) == 0 {
		return nil
	}
	out := make(map[string]any, len(v))
	for k, msg := range v {
		out[k] = msg
	}
	return out
}

// ValidationErrorsFromFields is the inverse of ValidationErrors.Fields.
// Non-string values are dropped.
func ValidationErrorsFromFields(fields map[string]any) ValidationErrors {
	out := ValidationErrors{}
	for k, v := range fields {
		if msg, ok := v.(string); ok {
			out[k] = msg
		}
	}
	return out
}

// PaymentLink is the snapshot a QR code was generated from.
type PaymentLink struct {
	URI    string     `json:"uri"`
	Fields FormFields `json:"fields"`
}

type GenerateResponseDTO struct {
	URI      string     `json:"uri"`
	Fields   FormFields `json:"fields"`
	QR       string     `json:"qr"`
	Filename string     `json:"filename"`
}

type DecodeRequestDTO struct {
	URI string `json:"uri" validate:"required"`
}

package upi

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/joshu-sajeev/upiqr/internal/config"
	"github.com/joshu-sajeev/upiqr/internal/dto"
)

const (
	Scheme = "upi"
	Host   = "pay"

	ParamPayeeID   = "pa"
	ParamPayeeName = "pn"
	ParamAmount    = "am"
	ParamCurrency  = "cu"
	ParamNote      = "tn"
)

var ErrInvalidLink = errors.New("invalid upi link")

// Builder turns validated form fields into a UPI deep link.
type Builder struct {
	omitEmpty bool
}

type Option func(*Builder)

// OmitEmpty drops pn, am and tn from the query when they are empty.
// pa and cu are always written.
func OmitEmpty() Option {
	return func(b *Builder) { b.omitEmpty = true }
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewBuilderForPolicy returns the builder matching a validation policy:
// permissive forms may leave optional fields blank, so those are omitted.
func NewBuilderForPolicy(policy config.ValidationPolicy) *Builder {
	if policy == config.PolicyPermissive {
		return NewBuilder(OmitEmpty())
	}
	return NewBuilder()
}

// Build trims f and returns the link together with the snapshot it was
// built from. The caller is expected to have validated f.
func (b *Builder) Build(f dto.FormFields) dto.PaymentLink {
	fields := f.Trimmed()

	params := []struct {
		key, value string
		optional   bool
	}{
		{ParamPayeeID, fields.PayeeID, false},
		{ParamPayeeName, fields.PayeeName, true},
		{ParamAmount, fields.Amount, true},
		{ParamCurrency, config.Currency, false},
		{ParamNote, fields.Note, true},
	}

	var sb strings.Builder
	sb.WriteString(Scheme + "://" + Host + "?")
	first := true
	for _, p := range params {
		if b.omitEmpty && p.optional && p.value == "" {
			continue
		}
		if !first {
			sb.WriteByte('&')
		}
		first = false
		sb.WriteString(p.key)
		sb.WriteByte('=')
		sb.WriteString(EncodeComponent(p.value))
	}

	return dto.PaymentLink{URI: sb.String(), Fields: fields}
}

// BuildURI builds a link with every parameter present.
func BuildURI(f dto.FormFields) string {
	return NewBuilder().Build(f).URI
}

// ParseURI decodes a upi://pay link back into form fields.
func ParseURI(raw string) (dto.FormFields, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return dto.FormFields{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	if !strings.EqualFold(u.Scheme, Scheme) {
		return dto.FormFields{}, fmt.Errorf("%w: scheme %q", ErrInvalidLink, u.Scheme)
	}
	if u.Host != Host {
		return dto.FormFields{}, fmt.Errorf("%w: host %q", ErrInvalidLink, u.Host)
	}

	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return dto.FormFields{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}

	if cu := q.Get(ParamCurrency); cu != "" && cu != config.Currency {
		return dto.FormFields{}, fmt.Errorf("%w: unsupported currency %q", ErrInvalidLink, cu)
	}

	fields := dto.FormFields{
		PayeeID:   q.Get(ParamPayeeID),
		PayeeName: q.Get(ParamPayeeName),
		Amount:    q.Get(ParamAmount),
		Note:      q.Get(ParamNote),
	}
	if fields.PayeeID == "" {
		return dto.FormFields{}, fmt.Errorf("%w: missing %s", ErrInvalidLink, ParamPayeeID)
	}

	return fields, nil
}

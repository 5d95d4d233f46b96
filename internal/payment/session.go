package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/joshu-sajeev/upiqr/common"
	"github.com/joshu-sajeev/upiqr/internal/dto"
)

var ErrGenerateInFlight = errors.New("a QR code is already being generated for this form")

// Generator is the part of the payment service a Session drives.
type Generator interface {
	Generate(ctx context.Context, fields dto.FormFields) (*GenerateResult, error)
}

// Session is the form state owned by one interactive front end: the
// fields being edited, their last validation errors and the QR code on
// display.
//
// Generate refuses to start while a render for the same snapshot is still
// running. Results are applied last-write-wins: a generate started later
// always supersedes an earlier one, whichever finishes first.
type Session struct {
	gen Generator

	mu       sync.Mutex
	form     dto.FormFields
	errs     dto.ValidationErrors
	current  *GenerateResult
	started  uint64
	applied  uint64
	inFlight map[dto.FormFields]struct{}
}

func NewSession(gen Generator) *Session {
	return &Session{
		gen:      gen,
		errs:     dto.ValidationErrors{},
		inFlight: map[dto.FormFields]struct{}{},
	}
}

// Update sets one form field. Edits never touch the displayed result.
func (s *Session) Update(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.form.Set(field, value) {
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

func (s *Session) SetForm(f dto.FormFields) {
	s.mu.Lock()
	s.form = f
	s.mu.Unlock()
}

func (s *Session) Form() dto.FormFields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Session) Errors() dto.ValidationErrors {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(dto.ValidationErrors, len(s.errs))
	for k, v := range s.errs {
		out[k] = v
	}
	return out
}

// Current returns the result on display, if any.
func (s *Session) Current() (*GenerateResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != nil
}

// Busy reports whether a generate for the current form is running, i.e.
// whether a "Generate" action should be disabled.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[s.form.Trimmed()]
	return busy
}

// Generate runs the generator on a snapshot of the current form.
func (s *Session) Generate(ctx context.Context) (*GenerateResult, error) {
	s.mu.Lock()
	snapshot := s.form.Trimmed()
	if _, busy := s.inFlight[snapshot]; busy {
		s.mu.Unlock()
		return nil, ErrGenerateInFlight
	}
	s.inFlight[snapshot] = struct{}{}
	s.started++
	seq := s.started
	s.mu.Unlock()

	res, err := s.gen.Generate(ctx, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, snapshot)

	if seq < s.applied {
		return res, err
	}
	s.applied = seq

	if err != nil {
		var apiErr common.APIError
		if errors.As(err, &apiErr) && apiErr.Fields != nil {
			s.errs = dto.ValidationErrorsFromFields(apiErr.Fields)
		}
		return nil, err
	}

	s.errs = dto.ValidationErrors{}
	s.current = res
	return res, nil
}

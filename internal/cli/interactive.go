package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joshu-sajeev/upiqr/internal/dto"
	"github.com/joshu-sajeev/upiqr/internal/payment"
	"github.com/sirupsen/logrus"
)

// Service is what the terminal front end needs from the payment service.
type Service interface {
	payment.Generator
	Export(ctx context.Context, fields dto.FormFields) (*payment.ExportResult, error)
	ExportGenerated(ctx context.Context, res *payment.GenerateResult) (*payment.ExportResult, error)
	ValidateField(field, value string) string
}

type fieldPrompt struct {
	field   string
	message string
	help    string
}

var fieldPrompts = []fieldPrompt{
	{field: dto.FieldPayeeID, message: "UPI ID", help: "The payee's virtual payment address, e.g. name@bank"},
	{field: dto.FieldPayeeName, message: "Name", help: "Shown to the payer in their UPI app"},
	{field: dto.FieldAmount, message: "Amount (INR)", help: "A positive number such as 500 or 500.50"},
	{field: dto.FieldNote, message: "Note", help: "What the payment is for"},
}

// Interactive walks the user through the payment form, then writes the
// card for each generated QR code into OutDir.
type Interactive struct {
	Prompter Prompter
	Service  Service
	OutDir   string
	Log      *logrus.Logger
}

func (it *Interactive) Run(ctx context.Context) error {
	session := payment.NewSession(it.Service)

	for {
		if err := it.fill(ctx, session); err != nil {
			return err
		}

		path, err := it.generate(ctx, session)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ErrAborted) {
				return err
			}
			if infoErr := it.Prompter.Info(ctx, "Error: "+err.Error()); infoErr != nil {
				return infoErr
			}
		} else {
			res, _ := session.Current()
			if err := it.Prompter.Info(ctx, fmt.Sprintf("%s\nSaved %s", res.Link.URI, path)); err != nil {
				return err
			}
		}

		again, err := it.Prompter.Confirm(ctx, "Generate another QR code?", false)
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
	}
}

// fill prompts for every field, offering the previous answer as default.
func (it *Interactive) fill(ctx context.Context, session *payment.Session) error {
	current := session.Form()
	for _, p := range fieldPrompts {
		def, _ := current.Get(p.field)
		field := p.field

		answer, err := it.Prompter.Input(ctx, InputConfig{
			Message: p.message,
			Help:    p.help,
			Default: def,
			Validator: func(value string) error {
				if msg := it.Service.ValidateField(field, value); msg != "" {
					return errors.New(msg)
				}
				return nil
			},
		})
		if err != nil {
			return err
		}
		if err := session.Update(field, answer); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interactive) generate(ctx context.Context, session *payment.Session) (string, error) {
	res, err := session.Generate(ctx)
	if err != nil {
		return "", err
	}

	exported, err := it.Service.ExportGenerated(ctx, res)
	if err != nil {
		return "", err
	}

	path := filepath.Join(it.OutDir, exported.Filename)
	if err := os.WriteFile(path, exported.PNG, 0o644); err != nil {
		return "", fmt.Errorf("write card: %w", err)
	}

	it.Log.WithFields(logrus.Fields{"payee": res.Link.Fields.PayeeID, "file": path}).Debug("card saved")
	return path, nil
}

package payment

import (
	"context"
	"errors"
	"net/http"

	"github.com/joshu-sajeev/upiqr/common"
	"github.com/joshu-sajeev/upiqr/internal/card"
	"github.com/joshu-sajeev/upiqr/internal/config"
	"github.com/joshu-sajeev/upiqr/internal/dto"
	"github.com/joshu-sajeev/upiqr/internal/qr"
	"github.com/joshu-sajeev/upiqr/internal/upi"
	"github.com/sirupsen/logrus"
)

// Settings holds the rendering choices the service applies to every link.
type Settings struct {
	Policy config.ValidationPolicy
	QR     qr.Options
	Card   card.Options
}

func DefaultSettings() Settings {
	return Settings{
		Policy: config.PolicyStrict,
		QR:     qr.DefaultOptions(),
		Card:   card.DefaultOptions(),
	}
}

// SettingsFromConfig converts the env configuration into render settings.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	s := DefaultSettings()
	s.Policy = cfg.Policy

	level, err := qr.ParseLevel(cfg.QRErrorCorrection)
	if err != nil {
		return Settings{}, err
	}
	fg, err := qr.ParseHexColor(cfg.QRForeground)
	if err != nil {
		return Settings{}, err
	}
	bg, err := qr.ParseHexColor(cfg.QRBackground)
	if err != nil {
		return Settings{}, err
	}
	cardBg, err := qr.ParseHexColor(cfg.CardBackground)
	if err != nil {
		return Settings{}, err
	}

	s.QR = qr.Options{Width: cfg.QRWidth, Margin: cfg.QRMargin, Foreground: fg, Background: bg, Level: level}
	s.Card.Background = cardBg
	s.Card.PixelRatio = cfg.CardPixelRatio
	return s, nil
}

type GenerateResult struct {
	Link dto.PaymentLink
	QR   []byte
}

type ExportResult struct {
	Link     dto.PaymentLink
	Filename string
	PNG      []byte
}

type PaymentService struct {
	validator *Validator
	builder   *upi.Builder
	renderer  qr.Renderer
	exporter  card.Exporter
	settings  Settings
	log       *logrus.Entry
}

func NewPaymentService(settings Settings, renderer qr.Renderer, exporter card.Exporter, log *logrus.Logger) *PaymentService {
	return &PaymentService{
		validator: NewValidator(settings.Policy),
		builder:   upi.NewBuilderForPolicy(settings.Policy),
		renderer:  renderer,
		exporter:  exporter,
		settings:  settings,
		log:       log.WithField("component", "payment_service"),
	}
}

var _ PaymentServiceInterface = (*PaymentService)(nil)

func (s *PaymentService) Validate(fields dto.FormFields) dto.ValidationErrors {
	return s.validator.Validate(fields)
}

// ValidateField checks one field the same way Validate does.
func (s *PaymentService) ValidateField(field, value string) string {
	return s.validator.ValidateField(field, value)
}

// Link validates fields and builds the deep link without rendering it.
// Invalid fields yield a validation APIError and no link.
func (s *PaymentService) Link(ctx context.Context, fields dto.FormFields) (*dto.PaymentLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	if errs := s.validator.Validate(fields); errs.HasErrors() {
		return nil, common.ValidationFailed(errs.Fields())
	}

	link := s.builder.Build(fields)
	return &link, nil
}

// Generate validates fields, builds the link and renders its QR code.
// The renderer is never called for invalid fields.
func (s *PaymentService) Generate(ctx context.Context, fields dto.FormFields) (*GenerateResult, error) {
	link, err := s.Link(ctx, fields)
	if err != nil {
		return nil, err
	}

	png, err := s.renderer.Render(ctx, link.URI, s.settings.QR)
	if err != nil {
		s.log.WithError(err).WithField("payee", link.Fields.PayeeID).Warn("qr render failed")
		return nil, renderFailure(err)
	}

	s.log.WithFields(logrus.Fields{"payee": link.Fields.PayeeID, "bytes": len(png)}).Debug("qr generated")
	return &GenerateResult{Link: *link, QR: png}, nil
}

// Export generates the QR code and rasterizes the payment card around it.
func (s *PaymentService) Export(ctx context.Context, fields dto.FormFields) (*ExportResult, error) {
	res, err := s.Generate(ctx, fields)
	if err != nil {
		return nil, err
	}
	return s.ExportGenerated(ctx, res)
}

// ExportGenerated rasterizes the card for a QR code that was already
// rendered, without rendering it again.
func (s *PaymentService) ExportGenerated(ctx context.Context, res *GenerateResult) (*ExportResult, error) {
	if res == nil || len(res.QR) == 0 {
		return nil, exportFailure(&card.ExportError{Err: card.ErrEmptyCard})
	}

	png, err := s.exporter.Export(ctx, card.Card{QR: res.QR, Fields: res.Link.Fields}, s.settings.Card)
	if err != nil {
		s.log.WithError(err).WithField("payee", res.Link.Fields.PayeeID).Warn("card export failed")
		return nil, exportFailure(err)
	}

	return &ExportResult{
		Link:     res.Link,
		Filename: upi.Filename(res.Link.Fields.PayeeName),
		PNG:      png,
	}, nil
}

// Decode parses a upi://pay link back into form fields.
func (s *PaymentService) Decode(ctx context.Context, uri string) (*dto.FormFields, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	fields, err := upi.ParseURI(uri)
	if err != nil {
		return nil, common.NewAPIError(http.StatusBadRequest, "invalid UPI link", map[string]any{
			"uri": err.Error(),
		})
	}
	return &fields, nil
}

func renderFailure(err error) error {
	if isTimeout(err) {
		return common.Errf(http.StatusRequestTimeout, "request timeout")
	}

	var renderErr *qr.RenderError
	if errors.As(err, &renderErr) {
		return common.Errf(http.StatusUnprocessableEntity, "could not render QR code")
	}
	return common.Errf(http.StatusInternalServerError, "could not render QR code")
}

func exportFailure(err error) error {
	if isTimeout(err) {
		return common.Errf(http.StatusRequestTimeout, "request timeout")
	}
	return common.Errf(http.StatusInternalServerError, "could not export card")
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

package payment

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/upiqr/internal/dto"
)

// PaymentServiceInterface defines the contract for payment link operations.
type PaymentServiceInterface interface {
	Validate(fields dto.FormFields) dto.ValidationErrors
	Link(ctx context.Context, fields dto.FormFields) (*dto.PaymentLink, error)
	Generate(ctx context.Context, fields dto.FormFields) (*GenerateResult, error)
	Export(ctx context.Context, fields dto.FormFields) (*ExportResult, error)
	Decode(ctx context.Context, uri string) (*dto.FormFields, error)
}

// PaymentHandlerInterface defines the contract for HTTP request handlers.
type PaymentHandlerInterface interface {
	Index(c *gin.Context)
	GenerateForm(c *gin.Context)
	Download(c *gin.Context)
	Pay(c *gin.Context)
	CreateLink(c *gin.Context)
	DecodeLink(c *gin.Context)
	CreateCard(c *gin.Context)
}

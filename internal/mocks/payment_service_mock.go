package mocks

import (
	"context"

	"github.com/joshu-sajeev/upiqr/internal/dto"
	"github.com/joshu-sajeev/upiqr/internal/payment"
	"github.com/stretchr/testify/mock"
)

type PaymentServiceMock struct {
	mock.Mock
}

var _ payment.PaymentServiceInterface = (*PaymentServiceMock)(nil)

func (m *PaymentServiceMock) Validate(fields dto.FormFields) dto.ValidationErrors {
	args := m.Called(fields)
	errs, _ := args.Get(0).(dto.ValidationErrors)
	return errs
}

func (m *PaymentServiceMock) Link(ctx context.Context, fields dto.FormFields) (*dto.PaymentLink, error) {
	args := m.Called(ctx, fields)

	link, _ := args.Get(0).(*dto.PaymentLink)
	return link, args.Error(1)
}

func (m *PaymentServiceMock) Generate(ctx context.Context, fields dto.FormFields) (*payment.GenerateResult, error) {
	args := m.Called(ctx, fields)

	res, _ := args.Get(0).(*payment.GenerateResult)
	return res, args.Error(1)
}

func (m *PaymentServiceMock) Export(ctx context.Context, fields dto.FormFields) (*payment.ExportResult, error) {
	args := m.Called(ctx, fields)

	res, _ := args.Get(0).(*payment.ExportResult)
	return res, args.Error(1)
}

func (m *PaymentServiceMock) Decode(ctx context.Context, uri string) (*dto.FormFields, error) {
	args := m.Called(ctx, uri)

	fields, _ := args.Get(0).(*dto.FormFields)
	return fields, args.Error(1)
}

package mocks

import (
	"context"

	"github.com/joshu-sajeev/upiqr/internal/card"
	"github.com/joshu-sajeev/upiqr/internal/qr"
	"github.com/stretchr/testify/mock"
)

type RendererMock struct {
	mock.Mock
}

var _ qr.Renderer = (*RendererMock)(nil)

func (m *RendererMock) Render(ctx context.Context, text string, opts qr.Options) ([]byte, error) {
	args := m.Called(ctx, text, opts)

	png, _ := args.Get(0).([]byte)
	return png, args.Error(1)
}

type ExporterMock struct {
	mock.Mock
}

var _ card.Exporter = (*ExporterMock)(nil)

func (m *ExporterMock) Export(ctx context.Context, c card.Card, opts card.Options) ([]byte, error) {
	args := m.Called(ctx, c, opts)

	png, _ := args.Get(0).([]byte)
	return png, args.Error(1)
}

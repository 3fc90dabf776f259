package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRasterizer is a mock implementation of port.Rasterizer.
type MockRasterizer struct {
	mock.Mock
}

func (m *MockRasterizer) RenderPage(ctx context.Context, pdf []byte, page int) ([]byte, error) {
	args := m.Called(ctx, pdf, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

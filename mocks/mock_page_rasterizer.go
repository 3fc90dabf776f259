package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockPageRasterizer is a mock implementation of ocr.PageRasterizer.
type MockPageRasterizer struct {
	mock.Mock
}

func (m *MockPageRasterizer) RenderPages(ctx context.Context, pdf []byte, first, last int) ([][]byte, error) {
	args := m.Called(ctx, pdf, first, last)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]byte), args.Error(1)
}

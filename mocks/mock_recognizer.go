package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRecognizer is a mock implementation of ocr.Recognizer.
type MockRecognizer struct {
	mock.Mock
}

func (m *MockRecognizer) Recognize(ctx context.Context, png []byte) (string, error) {
	args := m.Called(ctx, png)
	return args.String(0), args.Error(1)
}

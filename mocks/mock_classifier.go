package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fiscalio/internal/domain"
)

// MockClassifier is a mock implementation of port.Classifier.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, record domain.FiscalRecord) (*domain.Classification, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Classification), args.Error(1)
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fiscalio/internal/domain"
	"fiscalio/internal/service"
)

// MockDocumentService is a mock implementation of service.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Process(ctx context.Context, input *service.ProcessInput) (*domain.ProcessResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessResult), args.Error(1)
}

func (m *MockDocumentService) SupportedFormats() map[string][]string {
	args := m.Called()
	return args.Get(0).(map[string][]string)
}

package port

import (
	"context"

	"fiscalio/internal/domain"
)

// Classifier is the downstream accounting-classification collaborator. It
// receives the normalized record by value; the pipeline never depends on it
// succeeding.
type Classifier interface {
	Classify(ctx context.Context, record domain.FiscalRecord) (*domain.Classification, error)
}

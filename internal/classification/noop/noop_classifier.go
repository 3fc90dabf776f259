package noop

import (
	"context"
	"log"

	"fiscalio/internal/domain"
	"fiscalio/internal/port"
)

type noopClassifier struct{}

// NewNoopClassifier creates a no-op Classifier that logs the record it
// would classify. A real accounting-classification backend slots in behind
// the same port without touching the pipeline.
func NewNoopClassifier() port.Classifier {
	return &noopClassifier{}
}

func (c *noopClassifier) Classify(_ context.Context, record domain.FiscalRecord) (*domain.Classification, error) {
	log.Printf("[NOOP CLASSIFIER] document %s (issuer %s) received for classification", record.DocumentNumber, record.IssuerID)
	return &domain.Classification{}, nil
}

package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fiscalio/internal/domain"
	"fiscalio/internal/extractor"
)

func floatPtr(v float64) *float64 { return &v }

// fullRecord has all seven critical fields populated.
func fullRecord() *domain.FiscalRecord {
	return &domain.FiscalRecord{
		DocumentNumber: "123",
		FiscalKey:      "35240312345678000190550010000001231000001234",
		TotalValue:     floatPtr(3000.00),
		IssueDate:      "2024-03-15",
		CFOP:           "5102",
		IssuerID:       "12345678000190",
		Items: []domain.LineItem{
			{Description: "Servico de manutencao", Quantity: 2, UnitValue: 1500},
		},
	}
}

func TestCompletenessScore_FullRecord(t *testing.T) {
	assert.Equal(t, 1.0, extractor.CompletenessScore(fullRecord()))
}

func TestCompletenessScore_NilAndEmpty(t *testing.T) {
	assert.Equal(t, 0.0, extractor.CompletenessScore(nil))
	assert.Equal(t, 0.0, extractor.CompletenessScore(&domain.FiscalRecord{}))
}

// Removing critical fields one at a time must strictly decrease the score.
func TestCompletenessScore_Monotonic(t *testing.T) {
	rec := fullRecord()
	prev := extractor.CompletenessScore(rec)

	drop := []func(){
		func() { rec.DocumentNumber = "" },
		func() { rec.FiscalKey = "" },
		func() { rec.TotalValue = nil },
		func() { rec.IssueDate = "" },
		func() { rec.CFOP = "" },
		func() { rec.IssuerID = "" },
		func() { rec.Items = nil },
	}
	for _, remove := range drop {
		remove()
		score := extractor.CompletenessScore(rec)
		assert.Less(t, score, prev)
		prev = score
	}
	assert.Equal(t, 0.0, prev)
}

func TestCompleteness_FiveOfSevenDoesNotTriggerFallback(t *testing.T) {
	rec := fullRecord()
	rec.FiscalKey = ""
	rec.CFOP = ""

	score := extractor.CompletenessScore(rec)
	assert.InDelta(t, 0.714, score, 0.001)
	assert.True(t, extractor.IsComplete(rec, 0.70))
}

func TestCompleteness_FourOfSevenTriggersFallback(t *testing.T) {
	rec := fullRecord()
	rec.FiscalKey = ""
	rec.CFOP = ""
	rec.IssueDate = ""

	score := extractor.CompletenessScore(rec)
	assert.InDelta(t, 0.571, score, 0.001)
	assert.False(t, extractor.IsComplete(rec, 0.70))
}

// The OCR placeholder item does not count as a usable line item, and a
// zero total does not count as a total.
func TestCompletenessScore_PlaceholderAndZeroValues(t *testing.T) {
	rec := fullRecord()
	rec.Items = []domain.LineItem{{Description: extractor.GenericOCRItemDescription, Quantity: 1}}
	rec.TotalValue = floatPtr(0)

	withPlaceholder := extractor.CompletenessScore(rec)
	assert.InDelta(t, 5.0/7.0, withPlaceholder, 0.001)
}

package quote

import (
	"strings"
	"testing"
	"time"

	"glasswork-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineTotalProductByArea(t *testing.T) {
	item := models.QuoteItem{Quantity: 2, Area: 0.5, UnitPrice: 40}
	// 40 per m2 * 0.5 m2 * 2 pcs
	assert.InDelta(t, 40.0, LineTotal(item), 1e-9)
}

func TestLineTotalServiceByPiece(t *testing.T) {
	item := models.QuoteItem{IsService: true, Quantity: 3, UnitPrice: 25}
	assert.InDelta(t, 75.0, LineTotal(item), 1e-9)
}

func TestLineTotalProductWithoutDimensions(t *testing.T) {
	item := models.QuoteItem{Quantity: 4, UnitPrice: 10}
	assert.InDelta(t, 40.0, LineTotal(item), 1e-9)
}

func TestComputeTotals(t *testing.T) {
	items := []models.QuoteItem{
		{Quantity: 2, Area: 0.5, UnitPrice: 40},       // 40
		{IsService: true, Quantity: 1, UnitPrice: 60}, // 60
	}

	subtotal, vatAmount, total := ComputeTotals(items, 25)

	assert.InDelta(t, 100.0, subtotal, 1e-9)
	assert.InDelta(t, 25.0, vatAmount, 1e-9)
	assert.InDelta(t, 125.0, total, 1e-9)

	require.Len(t, items, 2)
	assert.InDelta(t, 40.0, items[0].LineTotal, 1e-9)
	assert.InDelta(t, 60.0, items[1].LineTotal, 1e-9)
}

func TestComputeTotalsZeroVAT(t *testing.T) {
	items := []models.QuoteItem{{IsService: true, Quantity: 1, UnitPrice: 100}}

	subtotal, vatAmount, total := ComputeTotals(items, 0)

	assert.InDelta(t, 100.0, subtotal, 1e-9)
	assert.Zero(t, vatAmount)
	assert.InDelta(t, 100.0, total, 1e-9)
}

func TestNewQuoteNumberFormat(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	number := NewQuoteNumber(now)

	assert.True(t, strings.HasPrefix(number, "QT-260828-"))
	assert.Len(t, number, len("QT-260828-")+4)
}

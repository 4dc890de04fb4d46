package quote

import "glasswork-backend/internal/models"

// LineTotal prices one quoted line. Dimensioned product lines are priced
// by area (unit price per m2 times total area), everything else by piece.
func LineTotal(item models.QuoteItem) float64 {
	if !item.IsService && item.Area > 0 {
		return item.UnitPrice * item.Area * float64(item.Quantity)
	}
	return item.UnitPrice * float64(item.Quantity)
}

// ComputeTotals fills LineTotal on every item and returns
// (subtotal, vatAmount, total) for the given VAT percentage.
func ComputeTotals(items []models.QuoteItem, vatRate float64) (float64, float64, float64) {
	var subtotal float64
	for i := range items {
		items[i].LineTotal = LineTotal(items[i])
		subtotal += items[i].LineTotal
	}
	vatAmount := subtotal * vatRate / 100
	return subtotal, vatAmount, subtotal + vatAmount
}

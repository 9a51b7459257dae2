// Package alert decide se uma leitura de preço satisfaz a condição de promoção.
package alert

import (
	"alerta-steam/internal/models"

	"github.com/shopspring/decimal"
)

// Evaluate retorna true quando a leitura satisfaz a condição do modo.
// No modo de preço alvo, um alvo ausente ou não positivo nunca é atingido.
func Evaluate(reading models.PriceReading, mode models.Mode, threshold *decimal.Decimal) bool {
	switch mode {
	case models.ModeAnyDiscount:
		return reading.DiscountPercent > 0
	case models.ModePriceTarget:
		if !ValidThreshold(threshold) {
			return false
		}
		return reading.CurrentPrice.LessThanOrEqual(*threshold)
	}
	return false
}

// ValidThreshold informa se o preço alvo está configurado e é positivo
func ValidThreshold(threshold *decimal.Decimal) bool {
	return threshold != nil && threshold.IsPositive()
}

// Package notifier entrega os alertas de promoção nos canais de chat.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"alerta-steam/internal/models"
)

// Alert contém os dados de uma promoção recém detectada
type Alert struct {
	Item    models.TrackedItem
	Reading models.PriceReading
	Mode    models.Mode
}

// GameName prefere o nome do catálogo e usa o nome da Steam como alternativa
func (a Alert) GameName() string {
	if a.Item.Name != "" {
		return a.Item.Name
	}
	if a.Reading.Name != "" {
		return a.Reading.Name
	}
	return a.Item.DisplayName()
}

// Headline é o texto curto da promoção, comum a todos os canais
func (a Alert) Headline() string {
	price := a.Reading.CurrentPrice.StringFixed(2)
	currency := a.Reading.Currency
	if currency == "" {
		currency = "USD"
	}
	if a.Reading.DiscountPercent > 0 {
		return fmt.Sprintf("Em promoção: %s %s (%d%% off)", price, currency, a.Reading.DiscountPercent)
	}
	return fmt.Sprintf("Preço alvo atingido: %s %s", price, currency)
}

// Notifier envia um alerta para um canal
type Notifier interface {
	Name() string
	Send(ctx context.Context, alert Alert) error
}

// Multi envia o alerta para todos os canais configurados
type Multi []Notifier

// Name lista os canais
func (m Multi) Name() string {
	name := ""
	for i, n := range m {
		if i > 0 {
			name += ","
		}
		name += n.Name()
	}
	return name
}

// Send tenta todos os canais mesmo que algum falhe; os erros são combinados
func (m Multi) Send(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

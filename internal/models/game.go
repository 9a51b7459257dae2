package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidMode é retornado quando o modo de varredura não é reconhecido
var ErrInvalidMode = errors.New("modo de varredura inválido")

// Mode define qual condição de promoção dispara o alerta
type Mode string

const (
	// ModeAnyDiscount alerta para qualquer desconto
	ModeAnyDiscount Mode = "any-discount"
	// ModePriceTarget alerta quando o preço atinge o preço alvo
	ModePriceTarget Mode = "price-target"
)

// ParseMode converte o texto da linha de comando em um Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAnyDiscount:
		return ModeAnyDiscount, nil
	case ModePriceTarget:
		return ModePriceTarget, nil
	}
	return "", fmt.Errorf("%w: %q (use %s ou %s)", ErrInvalidMode, s, ModeAnyDiscount, ModePriceTarget)
}

// TrackedItem representa um jogo sendo monitorado
type TrackedItem struct {
	ID             string // App ID da Steam
	Name           string
	URL            string
	PriceThreshold *decimal.Decimal // Preço alvo (nil quando não configurado)
	CreatedAt      time.Time
}

// DisplayName retorna o nome do jogo ou o App ID quando o nome é desconhecido
func (t TrackedItem) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return "App " + t.ID
}

// PriceReading é a leitura de preço de um ciclo; nunca é persistida
type PriceReading struct {
	ItemID          string
	Name            string
	CurrentPrice    decimal.Decimal
	InitialPrice    decimal.Decimal // Preço antes do desconto
	Currency        string
	DiscountPercent int // 0-100
	ImageURL        string
}

// NotificationRecord indica que a promoção ativa de um jogo já foi notificada
type NotificationRecord struct {
	GameName        string
	CurrentPrice    decimal.Decimal
	DiscountPercent int
}

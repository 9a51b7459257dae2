package monitor

import (
	"context"
	"fmt"
	"time"

	"alerta-steam/internal/alert"
	"alerta-steam/internal/logger"
	"alerta-steam/internal/metrics"
	"alerta-steam/internal/models"
	"alerta-steam/internal/notifier"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PriceFetcher busca a leitura de preço atual de um jogo
type PriceFetcher interface {
	FetchPriceReading(ctx context.Context, appID, countryCode, language string) (models.PriceReading, error)
}

// StateStore guarda quais promoções já foram notificadas
type StateStore interface {
	IsNotified(appID string) bool
	RecordNotification(appID, gameName string, currentPrice decimal.Decimal, discountPercent int) error
	ClearNotification(appID string) error
	Sync() error
}

// Options configura o monitor
type Options struct {
	Mode           models.Mode
	CountryCode    string
	Language       string
	Interval       time.Duration
	RequestTimeout time.Duration
}

// Monitor gerencia a verificação periódica de preços
type Monitor struct {
	fetcher  PriceFetcher
	notifier notifier.Notifier
	store    StateStore
	opts     Options
	log      zerolog.Logger
}

// New cria uma nova instância do monitor
func New(fetcher PriceFetcher, n notifier.Notifier, store StateStore, opts Options, log zerolog.Logger) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Monitor{
		fetcher:  fetcher,
		notifier: n,
		store:    store,
		opts:     opts,
		log:      log,
	}
}

// Run verifica os jogos a cada intervalo até o contexto ser cancelado.
// O jogo em verificação é sempre concluído antes de retornar.
func (m *Monitor) Run(ctx context.Context, items []models.TrackedItem) error {
	if len(items) == 0 {
		return fmt.Errorf("nenhum jogo para monitorar")
	}

	m.log.Info().
		Int("games", len(items)).
		Str("mode", string(m.opts.Mode)).
		Dur("interval", m.opts.Interval).
		Msg("monitor iniciado")

	for {
		m.RunCycle(ctx, items)

		if ctx.Err() != nil || !m.sleep(ctx) {
			m.log.Info().Msg("monitor encerrado")
			return nil
		}
	}
}

// sleep aguarda o intervalo; retorna false se o contexto for cancelado
func (m *Monitor) sleep(ctx context.Context) bool {
	m.log.Info().Dur("interval", m.opts.Interval).Msg("aguardando próxima verificação")

	timer := time.NewTimer(m.opts.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// RunCycle verifica os jogos em sequência uma única vez. Um cancelamento
// interrompe o ciclo entre um jogo e outro.
func (m *Monitor) RunCycle(ctx context.Context, items []models.TrackedItem) {
	start := time.Now()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	if err := m.store.Sync(); err != nil {
		m.log.Error().Err(err).Msg("estado de notificações ainda não gravado")
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return
		}
		m.checkItem(context.WithoutCancel(ctx), item)
	}
}

// Check busca o preço de um jogo sem alterar o estado (usado pelo comando check)
func (m *Monitor) Check(ctx context.Context, item models.TrackedItem) (models.PriceReading, bool, error) {
	reading, err := m.fetch(ctx, item)
	if err != nil {
		return reading, false, err
	}
	return reading, alert.Evaluate(reading, m.opts.Mode, item.PriceThreshold), nil
}

func (m *Monitor) fetch(ctx context.Context, item models.TrackedItem) (models.PriceReading, error) {
	ctx, cancel := context.WithTimeout(ctx, m.opts.RequestTimeout)
	defer cancel()

	reading, err := m.fetcher.FetchPriceReading(ctx, item.ID, m.opts.CountryCode, m.opts.Language)
	if err != nil {
		metrics.FetchTotal.WithLabelValues("failed").Inc()
		return reading, err
	}
	metrics.FetchTotal.WithLabelValues("ok").Inc()
	return reading, nil
}

func (m *Monitor) checkItem(ctx context.Context, item models.TrackedItem) {
	log := logger.WithGame(m.log, item.ID, item.DisplayName())

	reading, err := m.fetch(ctx, item)
	if err != nil {
		log.Warn().Err(err).Msg("preço indisponível, jogo ignorado neste ciclo")
		return
	}

	log.Info().
		Str("price", reading.CurrentPrice.StringFixed(2)).
		Str("currency", reading.Currency).
		Int("discount", reading.DiscountPercent).
		Msg("preço verificado")

	if m.opts.Mode == models.ModePriceTarget && !alert.ValidThreshold(item.PriceThreshold) {
		log.Warn().Msg("preço alvo não configurado; condição nunca será atingida")
	}

	met := alert.Evaluate(reading, m.opts.Mode, item.PriceThreshold)
	notified := m.store.IsNotified(item.ID)

	switch {
	case met && !notified:
		m.notify(ctx, log, item, reading)

		name := item.Name
		if name == "" {
			name = reading.Name
		}
		if err := m.store.RecordNotification(item.ID, name, reading.CurrentPrice, reading.DiscountPercent); err != nil {
			log.Error().Err(err).Msg("erro ao registrar notificação; nova tentativa no próximo ciclo")
		}
		metrics.TransitionsTotal.WithLabelValues("notified").Inc()

	case !met && notified:
		log.Info().Msg("promoção encerrada")
		if err := m.store.ClearNotification(item.ID); err != nil {
			log.Error().Err(err).Msg("erro ao remover notificação; nova tentativa no próximo ciclo")
		}
		metrics.TransitionsTotal.WithLabelValues("quiescent").Inc()

	case met && notified:
		log.Info().Msg("promoção já notificada")

	default:
		log.Info().Msg("sem promoção")
	}
}

// notify envia o alerta uma única vez; falhas são apenas registradas
func (m *Monitor) notify(ctx context.Context, log zerolog.Logger, item models.TrackedItem, reading models.PriceReading) {
	ctx, cancel := context.WithTimeout(ctx, m.opts.RequestTimeout)
	defer cancel()

	a := notifier.Alert{Item: item, Reading: reading, Mode: m.opts.Mode}
	if err := m.notifier.Send(ctx, a); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("channel", m.notifier.Name()).Msg("erro ao enviar notificação")
		return
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	log.Info().Str("channel", m.notifier.Name()).Msg("notificação enviada")
}

package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Consultas à Steam
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerta_steam_fetch_total",
			Help: "Total de consultas de preço à Steam",
		},
		[]string{"result"}, // result: ok, failed
	)

	// Notificações
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerta_notifications_total",
			Help: "Total de notificações de promoção enviadas",
		},
		[]string{"status"}, // status: sent, failed
	)

	// Transições de estado por jogo
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerta_state_transitions_total",
			Help: "Total de transições entre os estados quiescent e notified",
		},
		[]string{"to"},
	)

	PersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alerta_state_persist_failures_total",
			Help: "Total de falhas ao gravar o estado de notificações",
		},
	)

	NotifiedGames = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alerta_notified_games",
			Help: "Jogos com promoção ativa já notificada",
		},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "alerta_cycle_duration_seconds",
			Help:    "Duração de um ciclo de verificação",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)

// Serve expõe /metrics em addr até o contexto ser cancelado
func Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("servidor de métricas iniciado")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

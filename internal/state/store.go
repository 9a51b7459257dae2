// Package state guarda quais jogos já tiveram a promoção atual notificada.
//
// Cada alteração é gravada no backend antes de retornar. Se a gravação
// falhar, o estado em memória é mantido, o erro é devolvido ao chamador e a
// próxima chamada a Sync (ou a próxima alteração) tenta gravar novamente.
package state

import (
	"fmt"
	"sync"

	"alerta-steam/internal/metrics"
	"alerta-steam/internal/models"

	"github.com/shopspring/decimal"
)

// Backend é o meio persistente do estado (arquivo JSON ou SQLite)
type Backend interface {
	LoadNotifications() (map[string]models.NotificationRecord, error)
	SaveNotifications(records map[string]models.NotificationRecord) error
}

// Store mantém os registros de notificação em memória com gravação imediata
type Store struct {
	mu      sync.RWMutex
	backend Backend
	records map[string]models.NotificationRecord
	dirty   bool
}

// Open carrega o estado atual do backend
func Open(backend Backend) (*Store, error) {
	records, err := backend.LoadNotifications()
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar estado de notificações: %w", err)
	}
	if records == nil {
		records = make(map[string]models.NotificationRecord)
	}
	metrics.NotifiedGames.Set(float64(len(records)))
	return &Store{backend: backend, records: records}, nil
}

// IsNotified informa se a promoção ativa do jogo já foi notificada
func (s *Store) IsNotified(appID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[appID]
	return ok
}

// Get retorna o registro do jogo, se houver
func (s *Store) Get(appID string) (models.NotificationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[appID]
	return rec, ok
}

// RecordNotification cria ou sobrescreve o registro do jogo
func (s *Store) RecordNotification(appID, gameName string, currentPrice decimal.Decimal, discountPercent int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[appID] = models.NotificationRecord{
		GameName:        gameName,
		CurrentPrice:    currentPrice,
		DiscountPercent: discountPercent,
	}
	return s.persistLocked()
}

// ClearNotification remove o registro do jogo; não faz nada se não existir
func (s *Store) ClearNotification(appID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[appID]; !ok {
		return nil
	}
	delete(s.records, appID)
	return s.persistLocked()
}

// Sync grava novamente o estado se uma gravação anterior falhou
func (s *Store) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	return s.persistLocked()
}

// Dirty informa se há alterações ainda não gravadas
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Records retorna uma cópia de todos os registros
func (s *Store) Records() map[string]models.NotificationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.NotificationRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

func (s *Store) persistLocked() error {
	metrics.NotifiedGames.Set(float64(len(s.records)))

	snapshot := make(map[string]models.NotificationRecord, len(s.records))
	for k, v := range s.records {
		snapshot[k] = v
	}

	if err := s.backend.SaveNotifications(snapshot); err != nil {
		s.dirty = true
		metrics.PersistFailuresTotal.Inc()
		return fmt.Errorf("erro ao gravar estado de notificações: %w", err)
	}
	s.dirty = false
	return nil
}

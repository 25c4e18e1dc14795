// Package store reads and records ledger rows in memory or in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"vaultspark/internal/ledger/models"
	id "vaultspark/pkg/domain"
	"vaultspark/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu   sync.RWMutex
	rows []models.Transaction
	ids  map[id.TransactionID]struct{}
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{ids: make(map[id.TransactionID]struct{})}
}

// Record appends tx, assigning an id when it has none.
func (s *InMemoryStore) Record(_ context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID.IsNil() {
		tx.ID = id.NewTransactionID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[tx.ID]; ok {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, sentinel.ErrConflict)
	}
	s.ids[tx.ID] = struct{}{}
	s.rows = append(s.rows, tx)
	return tx, nil
}

// ListTransactions returns rows matching filter in the requested order.
// A limit of zero or less means no limit.
func (s *InMemoryStore) ListTransactions(_ context.Context, filter models.Filter, order models.Order, limit int) ([]models.Transaction, error) {
	s.mu.RLock()
	out := make([]models.Transaction, 0)
	for _, tx := range s.rows {
		if filter.Matches(tx) {
			out = append(out, tx)
		}
	}
	s.mu.RUnlock()

	switch order {
	case models.OrderNewestFirst:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	case models.OrderOldestFirst:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"chainraise/contexts/payout-operations/payout-orchestrator/domain/entities"
	domainerrors "chainraise/contexts/payout-operations/payout-orchestrator/domain/errors"
	"chainraise/contexts/payout-operations/payout-orchestrator/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	payouts map[string]entities.Payout
	audits  []entities.AuditRecord
	outbox  []ports.EventEnvelope
}

func NewStore(seed []entities.Payout) *Store {
	store := &Store{payouts: make(map[string]entities.Payout)}
	for _, payout := range seed {
		store.payouts[payout.PayoutID] = payout
	}
	return store
}

func (s *Store) CreatePayout(_ context.Context, payout entities.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(payout.PayoutID)
	if id == "" {
		return domainerrors.ErrInvalidPayoutInput
	}
	if _, exists := s.payouts[id]; exists {
		return domainerrors.ErrInvalidPayoutInput
	}
	s.payouts[id] = payout
	return nil
}

func (s *Store) UpdatePayout(_ context.Context, payout entities.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(payout.PayoutID)
	if _, exists := s.payouts[id]; !exists {
		return domainerrors.ErrPayoutNotFound
	}
	s.payouts[id] = payout
	return nil
}

func (s *Store) GetPayout(_ context.Context, payoutID string) (entities.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payout, ok := s.payouts[strings.TrimSpace(payoutID)]
	if !ok {
		return entities.Payout{}, domainerrors.ErrPayoutNotFound
	}
	return payout, nil
}

func (s *Store) FindByTransactionReference(_ context.Context, provider string, reference string) (entities.Payout, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref := strings.TrimSpace(reference)
	if ref == "" {
		return entities.Payout{}, false, nil
	}
	for _, payout := range s.payouts {
		if payout.Provider == provider && payout.TransactionReference == ref {
			return payout, true, nil
		}
	}
	return entities.Payout{}, false, nil
}

func (s *Store) ListPayouts(_ context.Context, filter ports.PayoutFilter) ([]entities.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Payout, 0)
	for _, payout := range s.payouts {
		if filter.CampaignID != "" && payout.CampaignID != filter.CampaignID {
			continue
		}
		if filter.ReferrerID != "" && payout.ReferrerID != filter.ReferrerID {
			continue
		}
		if filter.Family != "" && payout.Family != filter.Family {
			continue
		}
		if filter.Status != "" && payout.Status != filter.Status {
			continue
		}
		items = append(items, payout)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) AppendAudit(_ context.Context, record entities.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audits = append(s.audits, record)
	return nil
}

func (s *Store) ListByPayout(_ context.Context, payoutID string) ([]entities.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.AuditRecord, 0)
	for _, record := range s.audits {
		if record.PayoutID == strings.TrimSpace(payoutID) {
			items = append(items, record)
		}
	}
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outbox = append(s.outbox, envelope)
	return nil
}

func (s *Store) Outbox() []ports.EventEnvelope {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]ports.EventEnvelope(nil), s.outbox...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

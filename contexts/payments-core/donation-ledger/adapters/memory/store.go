package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"chainraise/contexts/payments-core/donation-ledger/domain/entities"
	domainerrors "chainraise/contexts/payments-core/donation-ledger/domain/errors"
	"chainraise/contexts/payments-core/donation-ledger/ports"

	"github.com/google/uuid"
)

type outboxRow struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu sync.RWMutex

	donations   map[string]entities.Donation
	idempotency map[string]ports.IdempotencyRecord
	outbox      []outboxRow
}

func NewStore(seed []entities.Donation) *Store {
	store := &Store{
		donations:   make(map[string]entities.Donation),
		idempotency: make(map[string]ports.IdempotencyRecord),
	}
	for _, donation := range seed {
		store.donations[donation.DonationID] = donation
	}
	return store
}

func (s *Store) CreateDonation(_ context.Context, donation entities.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(donation.DonationID)
	if id == "" {
		return domainerrors.ErrInvalidDonationInput
	}
	if _, exists := s.donations[id]; exists {
		return domainerrors.ErrInvalidDonationInput
	}
	s.donations[id] = donation
	return nil
}

func (s *Store) UpdateDonation(_ context.Context, donation entities.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(donation.DonationID)
	if _, exists := s.donations[id]; !exists {
		return domainerrors.ErrDonationNotFound
	}
	s.donations[id] = donation
	return nil
}

func (s *Store) GetDonation(_ context.Context, donationID string) (entities.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	donation, ok := s.donations[strings.TrimSpace(donationID)]
	if !ok {
		return entities.Donation{}, domainerrors.ErrDonationNotFound
	}
	return donation, nil
}

func (s *Store) FindByProviderReference(_ context.Context, provider string, reference string) (entities.Donation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, donation := range s.donations {
		if donation.PaymentMethod == provider && donation.ProviderReference == strings.TrimSpace(reference) {
			return donation, true, nil
		}
	}
	return entities.Donation{}, false, nil
}

func (s *Store) ListByCampaign(_ context.Context, campaignID string) ([]entities.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Donation, 0)
	for _, donation := range s.donations {
		if donation.CampaignID == strings.TrimSpace(campaignID) {
			items = append(items, donation)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ListCompletedByCampaign(ctx context.Context, campaignID string) ([]entities.Donation, error) {
	all, err := s.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	items := make([]entities.Donation, 0, len(all))
	for _, donation := range all {
		if donation.PaymentStatus == entities.PaymentStatusCompleted {
			items = append(items, donation)
		}
	}
	return items, nil
}

func (s *Store) ListStalePending(_ context.Context, olderThan time.Time, limit int) ([]entities.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Donation, 0)
	for _, donation := range s.donations {
		if donation.PaymentStatus != entities.PaymentStatusPending {
			continue
		}
		if donation.StatusUpdatedAt.After(olderThan) {
			continue
		}
		items = append(items, donation)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].StatusUpdatedAt.Before(items[j].StatusUpdatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[strings.TrimSpace(key)]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, strings.TrimSpace(key))
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	if key == "" {
		return domainerrors.ErrIdempotencyKeyRequired
	}
	if existing, ok := s.idempotency[key]; ok {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		if !bytes.Equal(existing.ResponsePayload, record.ResponsePayload) {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		return nil
	}
	s.idempotency[key] = record
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, outboxRow{message: ports.OutboxMessage{
		OutboxID:     uuid.NewString(),
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt,
	}})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return nil
}

func (s *Store) Outbox() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		items = append(items, row.message)
	}
	return items
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

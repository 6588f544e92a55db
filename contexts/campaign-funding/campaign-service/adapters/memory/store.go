package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"chainraise/contexts/campaign-funding/campaign-service/domain/entities"
	domainerrors "chainraise/contexts/campaign-funding/campaign-service/domain/errors"
	"chainraise/contexts/campaign-funding/campaign-service/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	campaigns   map[string]entities.Campaign
	history     []entities.StateHistory
	idempotency map[string]ports.IdempotencyRecord
	outbox      []ports.EventEnvelope
}

func NewStore(seed []entities.Campaign) *Store {
	store := &Store{
		campaigns:   make(map[string]entities.Campaign),
		idempotency: make(map[string]ports.IdempotencyRecord),
	}
	for _, campaign := range seed {
		store.campaigns[campaign.CampaignID] = campaign
	}
	return store
}

func (s *Store) CreateCampaign(_ context.Context, campaign entities.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(campaign.CampaignID)
	if id == "" {
		return domainerrors.ErrInvalidCampaignInput
	}
	if _, exists := s.campaigns[id]; exists {
		return domainerrors.ErrInvalidCampaignInput
	}
	s.campaigns[id] = campaign
	return nil
}

func (s *Store) UpdateCampaign(_ context.Context, campaign entities.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(campaign.CampaignID)
	if _, exists := s.campaigns[id]; !exists {
		return domainerrors.ErrCampaignNotFound
	}
	s.campaigns[id] = campaign
	return nil
}

func (s *Store) GetCampaign(_ context.Context, campaignID string) (entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	campaign, ok := s.campaigns[strings.TrimSpace(campaignID)]
	if !ok {
		return entities.Campaign{}, domainerrors.ErrCampaignNotFound
	}
	return campaign, nil
}

func (s *Store) ListCampaigns(_ context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Campaign, 0)
	for _, campaign := range s.campaigns {
		if filter.OwnerID != "" && campaign.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && campaign.Status != filter.Status {
			continue
		}
		items = append(items, campaign)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) AppendState(_ context.Context, item entities.StateHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, item)
	return nil
}

func (s *Store) History() []entities.StateHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]entities.StateHistory(nil), s.history...)
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

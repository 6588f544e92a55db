package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"chainraise/contexts/payments-core/commission-engine/domain/entities"
	domainerrors "chainraise/contexts/payments-core/commission-engine/domain/errors"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	referrers map[string]entities.Referrer
	records   map[string]entities.CommissionRecord
}

func NewStore(seed []entities.Referrer) *Store {
	store := &Store{
		referrers: make(map[string]entities.Referrer),
		records:   make(map[string]entities.CommissionRecord),
	}
	for _, referrer := range seed {
		store.referrers[referrer.ReferrerID] = referrer
	}
	return store
}

func (s *Store) CreateReferrer(_ context.Context, referrer entities.Referrer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(referrer.ReferrerID)
	if id == "" {
		return domainerrors.ErrInvalidReferrerInput
	}
	if _, exists := s.referrers[id]; exists {
		return domainerrors.ErrInvalidReferrerInput
	}
	s.referrers[id] = referrer
	return nil
}

func (s *Store) UpdateReferrer(_ context.Context, referrer entities.Referrer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(referrer.ReferrerID)
	if _, exists := s.referrers[id]; !exists {
		return domainerrors.ErrReferrerNotFound
	}
	s.referrers[id] = referrer
	return nil
}

func (s *Store) GetReferrer(_ context.Context, referrerID string) (entities.Referrer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	referrer, ok := s.referrers[strings.TrimSpace(referrerID)]
	if !ok {
		return entities.Referrer{}, domainerrors.ErrReferrerNotFound
	}
	return referrer, nil
}

func (s *Store) FindByUserAndCampaign(_ context.Context, userID string, campaignID string) (entities.Referrer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, referrer := range s.referrers {
		if referrer.UserID == strings.TrimSpace(userID) && referrer.CampaignID == strings.TrimSpace(campaignID) {
			return referrer, true, nil
		}
	}
	return entities.Referrer{}, false, nil
}

func (s *Store) ListByCampaign(_ context.Context, campaignID string, limit int) ([]entities.Referrer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Referrer, 0)
	for _, referrer := range s.referrers {
		if referrer.CampaignID == strings.TrimSpace(campaignID) {
			items = append(items, referrer)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].TotalRaised > items[j].TotalRaised
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) CreateRecord(_ context.Context, record entities.CommissionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.DonationID == record.DonationID {
			return domainerrors.ErrInvalidReferrerInput
		}
	}
	s.records[record.RecordID] = record
	return nil
}

func (s *Store) FindByDonation(_ context.Context, donationID string) (entities.CommissionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.DonationID == strings.TrimSpace(donationID) {
			return record, true, nil
		}
	}
	return entities.CommissionRecord{}, false, nil
}

func (s *Store) ListUnpaidByCampaign(_ context.Context, campaignID string) ([]entities.CommissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.CommissionRecord, 0)
	for _, record := range s.records {
		if record.CampaignID == strings.TrimSpace(campaignID) && !record.Paid {
			items = append(items, record)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ListUnpaidByReferrer(_ context.Context, referrerID string) ([]entities.CommissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.CommissionRecord, 0)
	for _, record := range s.records {
		if record.ReferrerID == strings.TrimSpace(referrerID) && !record.Paid {
			items = append(items, record)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) MarkPaidByCampaign(_ context.Context, campaignID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, record := range s.records {
		if record.CampaignID == strings.TrimSpace(campaignID) && !record.Paid {
			record.Paid = true
			s.records[id] = record
		}
	}
	return nil
}

func (s *Store) MarkPaidByReferrer(_ context.Context, referrerID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, record := range s.records {
		if record.ReferrerID == strings.TrimSpace(referrerID) && !record.Paid {
			record.Paid = true
			s.records[id] = record
		}
	}
	return nil
}

func (s *Store) Records() []entities.CommissionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.CommissionRecord, 0, len(s.records))
	for _, record := range s.records {
		items = append(items, record)
	}
	return items
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

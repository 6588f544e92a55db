package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"chainraise/contexts/payments-core/donation-ledger/domain/entities"
	domainerrors "chainraise/contexts/payments-core/donation-ledger/domain/errors"
	"chainraise/contexts/payments-core/donation-ledger/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) CreateDonation(ctx context.Context, donation entities.Donation) error {
	row := donationModelFromEntity(donation)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidDonationInput
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateDonation(ctx context.Context, donation entities.Donation) error {
	result := r.db.WithContext(ctx).
		Model(&donationModel{}).
		Where("donation_id = ?", strings.TrimSpace(donation.DonationID)).
		Updates(donationUpdatesFromEntity(donation))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrDonationNotFound
	}
	return nil
}

func (r *Repository) GetDonation(ctx context.Context, donationID string) (entities.Donation, error) {
	var row donationModel
	err := r.db.WithContext(ctx).
		Where("donation_id = ?", strings.TrimSpace(donationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Donation{}, domainerrors.ErrDonationNotFound
		}
		return entities.Donation{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) FindByProviderReference(ctx context.Context, provider string, reference string) (entities.Donation, bool, error) {
	var row donationModel
	err := r.db.WithContext(ctx).
		Where("payment_method = ? AND provider_reference = ?", strings.TrimSpace(provider), strings.TrimSpace(reference)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Donation{}, false, nil
		}
		return entities.Donation{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListByCampaign(ctx context.Context, campaignID string) ([]entities.Donation, error) {
	var rows []donationModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Order("created_at DESC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

func (r *Repository) ListCompletedByCampaign(ctx context.Context, campaignID string) ([]entities.Donation, error) {
	var rows []donationModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND payment_status = ?", strings.TrimSpace(campaignID), string(entities.PaymentStatusCompleted)).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

func (r *Repository) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]entities.Donation, error) {
	tx := r.db.WithContext(ctx).
		Where("payment_status = ? AND status_updated_at <= ?", string(entities.PaymentStatusPending), olderThan.UTC()).
		Order("status_updated_at ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []donationModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ? AND expires_at > ?", strings.TrimSpace(key), now.UTC()).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	return ports.IdempotencyRecord{
		Key:             row.IdempotencyKey,
		RequestHash:     row.RequestHash,
		ResponsePayload: row.ResponsePayload,
		ExpiresAt:       row.ExpiresAt,
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		IdempotencyKey:  strings.TrimSpace(record.Key),
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrIdempotencyKeyConflict
		}
		return err
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       "pending",
		CreatedAt:    envelope.OccurredAt,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	tx := r.db.WithContext(ctx).
		Where("status = ?", "pending").
		Order("created_at ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []outboxModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	utc := publishedAt.UTC()
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       "published",
			"published_at": &utc,
		}).
		Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type donationModel struct {
	DonationID        string     `gorm:"column:donation_id;primaryKey"`
	CampaignID        string     `gorm:"column:campaign_id"`
	DonorID           string     `gorm:"column:donor_id"`
	ReferrerID        string     `gorm:"column:referrer_id"`
	Amount            float64    `gorm:"column:amount"`
	Currency          string     `gorm:"column:currency"`
	ConvertedAmount   float64    `gorm:"column:converted_amount"`
	ConvertedCurrency string     `gorm:"column:converted_currency"`
	ConversionRate    float64    `gorm:"column:conversion_rate"`
	PaymentMethod     string     `gorm:"column:payment_method"`
	ProviderReference string     `gorm:"column:provider_reference"`
	PaymentStatus     string     `gorm:"column:payment_status"`
	RetryAttempts     int        `gorm:"column:retry_attempts"`
	FailureReason     string     `gorm:"column:failure_reason"`
	ProviderStatus    string     `gorm:"column:provider_status"`
	ProviderError     string     `gorm:"column:provider_error"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	ProcessedAt       *time.Time `gorm:"column:processed_at"`
	StatusUpdatedAt   time.Time  `gorm:"column:status_updated_at"`
}

func (donationModel) TableName() string { return "donations" }

type idempotencyModel struct {
	IdempotencyKey  string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string { return "donation_idempotency_keys" }

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "outbox_events" }

func donationModelFromEntity(donation entities.Donation) donationModel {
	return donationModel{
		DonationID:        donation.DonationID,
		CampaignID:        donation.CampaignID,
		DonorID:           donation.DonorID,
		ReferrerID:        donation.ReferrerID,
		Amount:            donation.Amount,
		Currency:          donation.Currency,
		ConvertedAmount:   donation.ConvertedAmount,
		ConvertedCurrency: donation.ConvertedCurrency,
		ConversionRate:    donation.ConversionRate,
		PaymentMethod:     donation.PaymentMethod,
		ProviderReference: donation.ProviderReference,
		PaymentStatus:     string(donation.PaymentStatus),
		RetryAttempts:     donation.RetryAttempts,
		FailureReason:     donation.FailureReason,
		ProviderStatus:    donation.ProviderStatus,
		ProviderError:     donation.ProviderError,
		CreatedAt:         donation.CreatedAt,
		ProcessedAt:       donation.ProcessedAt,
		StatusUpdatedAt:   donation.StatusUpdatedAt,
	}
}

func donationUpdatesFromEntity(donation entities.Donation) map[string]any {
	updates := map[string]any{
		"converted_amount":   donation.ConvertedAmount,
		"converted_currency": donation.ConvertedCurrency,
		"conversion_rate":    donation.ConversionRate,
		"payment_status":     string(donation.PaymentStatus),
		"retry_attempts":     donation.RetryAttempts,
		"failure_reason":     donation.FailureReason,
		"provider_status":    donation.ProviderStatus,
		"provider_error":     donation.ProviderError,
		"status_updated_at":  donation.StatusUpdatedAt,
	}
	if donation.ProcessedAt != nil {
		updates["processed_at"] = donation.ProcessedAt
	}
	return updates
}

func toEntities(rows []donationModel) []entities.Donation {
	items := make([]entities.Donation, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func (m donationModel) toEntity() entities.Donation {
	return entities.Donation{
		DonationID:        m.DonationID,
		CampaignID:        m.CampaignID,
		DonorID:           m.DonorID,
		ReferrerID:        m.ReferrerID,
		Amount:            m.Amount,
		Currency:          m.Currency,
		ConvertedAmount:   m.ConvertedAmount,
		ConvertedCurrency: m.ConvertedCurrency,
		ConversionRate:    m.ConversionRate,
		PaymentMethod:     m.PaymentMethod,
		ProviderReference: m.ProviderReference,
		PaymentStatus:     entities.PaymentStatus(m.PaymentStatus),
		RetryAttempts:     m.RetryAttempts,
		FailureReason:     m.FailureReason,
		ProviderStatus:    m.ProviderStatus,
		ProviderError:     m.ProviderError,
		CreatedAt:         m.CreatedAt,
		ProcessedAt:       m.ProcessedAt,
		StatusUpdatedAt:   m.StatusUpdatedAt,
	}
}

package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"chainraise/contexts/campaign-funding/campaign-service/domain/entities"
	domainerrors "chainraise/contexts/campaign-funding/campaign-service/domain/errors"
	"chainraise/contexts/campaign-funding/campaign-service/ports"

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

func (r *Repository) CreateCampaign(ctx context.Context, campaign entities.Campaign) error {
	row := campaignModelFromEntity(campaign)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidCampaignInput
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateCampaign(ctx context.Context, campaign entities.Campaign) error {
	result := r.db.WithContext(ctx).
		Model(&campaignModel{}).
		Where("campaign_id = ?", strings.TrimSpace(campaign.CampaignID)).
		Updates(campaignUpdatesFromEntity(campaign))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCampaignNotFound
	}
	return nil
}

func (r *Repository) GetCampaign(ctx context.Context, campaignID string) (entities.Campaign, error) {
	var row campaignModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Campaign{}, domainerrors.ErrCampaignNotFound
		}
		return entities.Campaign{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCampaigns(ctx context.Context, filter ports.CampaignFilter) ([]entities.Campaign, error) {
	tx := r.db.WithContext(ctx).Model(&campaignModel{})
	if strings.TrimSpace(filter.OwnerID) != "" {
		tx = tx.Where("owner_id = ?", strings.TrimSpace(filter.OwnerID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var rows []campaignModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Campaign, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendState(ctx context.Context, item entities.StateHistory) error {
	row := stateHistoryModel{
		HistoryID:  item.HistoryID,
		CampaignID: item.CampaignID,
		FromStatus: string(item.FromStatus),
		ToStatus:   string(item.ToStatus),
		Reason:     string(item.Reason),
		ChangedBy:  item.ChangedBy,
		CreatedAt:  item.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&row).Error
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type campaignModel struct {
	CampaignID        string     `gorm:"column:campaign_id;primaryKey"`
	OwnerID           string     `gorm:"column:owner_id"`
	Title             string     `gorm:"column:title"`
	Description       string     `gorm:"column:description"`
	GoalAmount        float64    `gorm:"column:goal_amount"`
	Currency          string     `gorm:"column:currency"`
	CurrentAmount     float64    `gorm:"column:current_amount"`
	ChainingEnabled   bool       `gorm:"column:chaining_enabled"`
	CommissionRate    float64    `gorm:"column:commission_rate"`
	PayoutProvider    string     `gorm:"column:payout_provider"`
	SettlementAccount string     `gorm:"column:settlement_account"`
	Status            string     `gorm:"column:status"`
	ClosureReason     string     `gorm:"column:closure_reason"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
	ClosedAt          *time.Time `gorm:"column:closed_at"`
}

func (campaignModel) TableName() string { return "campaigns" }

type stateHistoryModel struct {
	HistoryID  string    `gorm:"column:history_id;primaryKey"`
	CampaignID string    `gorm:"column:campaign_id"`
	FromStatus string    `gorm:"column:from_status"`
	ToStatus   string    `gorm:"column:to_status"`
	Reason     string    `gorm:"column:reason"`
	ChangedBy  string    `gorm:"column:changed_by"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (stateHistoryModel) TableName() string { return "campaign_state_history" }

type idempotencyModel struct {
	IdempotencyKey  string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string { return "campaign_idempotency_keys" }

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

func campaignModelFromEntity(campaign entities.Campaign) campaignModel {
	return campaignModel{
		CampaignID:        campaign.CampaignID,
		OwnerID:           campaign.OwnerID,
		Title:             campaign.Title,
		Description:       campaign.Description,
		GoalAmount:        campaign.GoalAmount,
		Currency:          campaign.Currency,
		CurrentAmount:     campaign.CurrentAmount,
		ChainingEnabled:   campaign.ChainingEnabled,
		CommissionRate:    campaign.CommissionRate,
		PayoutProvider:    campaign.PayoutProvider,
		SettlementAccount: campaign.SettlementAccount,
		Status:            string(campaign.Status),
		ClosureReason:     string(campaign.ClosureReason),
		CreatedAt:         campaign.CreatedAt,
		UpdatedAt:         campaign.UpdatedAt,
		ClosedAt:          campaign.ClosedAt,
	}
}

func campaignUpdatesFromEntity(campaign entities.Campaign) map[string]any {
	updates := map[string]any{
		"current_amount": campaign.CurrentAmount,
		"status":         string(campaign.Status),
		"closure_reason": string(campaign.ClosureReason),
		"updated_at":     campaign.UpdatedAt,
	}
	if campaign.ClosedAt != nil {
		updates["closed_at"] = campaign.ClosedAt
	}
	return updates
}

func (m campaignModel) toEntity() entities.Campaign {
	return entities.Campaign{
		CampaignID:        m.CampaignID,
		OwnerID:           m.OwnerID,
		Title:             m.Title,
		Description:       m.Description,
		GoalAmount:        m.GoalAmount,
		Currency:          m.Currency,
		CurrentAmount:     m.CurrentAmount,
		ChainingEnabled:   m.ChainingEnabled,
		CommissionRate:    m.CommissionRate,
		PayoutProvider:    m.PayoutProvider,
		SettlementAccount: m.SettlementAccount,
		Status:            entities.CampaignStatus(m.Status),
		ClosureReason:     entities.ClosureReason(m.ClosureReason),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		ClosedAt:          m.ClosedAt,
	}
}

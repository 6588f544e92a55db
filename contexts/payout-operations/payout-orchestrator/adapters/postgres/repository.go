package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"chainraise/contexts/payout-operations/payout-orchestrator/domain/entities"
	domainerrors "chainraise/contexts/payout-operations/payout-orchestrator/domain/errors"
	"chainraise/contexts/payout-operations/payout-orchestrator/ports"

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

func (r *Repository) CreatePayout(ctx context.Context, payout entities.Payout) error {
	row := payoutModelFromEntity(payout)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidPayoutInput
		}
		return err
	}
	return nil
}

func (r *Repository) UpdatePayout(ctx context.Context, payout entities.Payout) error {
	result := r.db.WithContext(ctx).
		Model(&payoutModel{}).
		Where("payout_id = ?", strings.TrimSpace(payout.PayoutID)).
		Updates(payoutUpdatesFromEntity(payout))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPayoutNotFound
	}
	return nil
}

func (r *Repository) GetPayout(ctx context.Context, payoutID string) (entities.Payout, error) {
	var row payoutModel
	err := r.db.WithContext(ctx).
		Where("payout_id = ?", strings.TrimSpace(payoutID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Payout{}, domainerrors.ErrPayoutNotFound
		}
		return entities.Payout{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) FindByTransactionReference(ctx context.Context, provider string, reference string) (entities.Payout, bool, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return entities.Payout{}, false, nil
	}

	var row payoutModel
	err := r.db.WithContext(ctx).
		Where("provider = ? AND transaction_reference = ?", strings.TrimSpace(provider), ref).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Payout{}, false, nil
		}
		return entities.Payout{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListPayouts(ctx context.Context, filter ports.PayoutFilter) ([]entities.Payout, error) {
	tx := r.db.WithContext(ctx).Model(&payoutModel{})
	if strings.TrimSpace(filter.CampaignID) != "" {
		tx = tx.Where("campaign_id = ?", strings.TrimSpace(filter.CampaignID))
	}
	if strings.TrimSpace(filter.ReferrerID) != "" {
		tx = tx.Where("referrer_id = ?", strings.TrimSpace(filter.ReferrerID))
	}
	if filter.Family != "" {
		tx = tx.Where("family = ?", string(filter.Family))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var rows []payoutModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Payout, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) AppendAudit(ctx context.Context, record entities.AuditRecord) error {
	row := auditModel{
		AuditID:    record.AuditID,
		PayoutID:   record.PayoutID,
		Action:     record.Action,
		FromStatus: string(record.FromStatus),
		ToStatus:   string(record.ToStatus),
		ActorID:    record.ActorID,
		Reason:     record.Reason,
		CreatedAt:  record.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) ListByPayout(ctx context.Context, payoutID string) ([]entities.AuditRecord, error) {
	var rows []auditModel
	err := r.db.WithContext(ctx).
		Where("payout_id = ?", strings.TrimSpace(payoutID)).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.AuditRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.AuditRecord{
			AuditID:    row.AuditID,
			PayoutID:   row.PayoutID,
			Action:     row.Action,
			FromStatus: entities.PayoutStatus(row.FromStatus),
			ToStatus:   entities.PayoutStatus(row.ToStatus),
			ActorID:    row.ActorID,
			Reason:     row.Reason,
			CreatedAt:  row.CreatedAt,
		})
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type payoutModel struct {
	PayoutID             string     `gorm:"column:payout_id;primaryKey"`
	Family               string     `gorm:"column:family"`
	CampaignID           string     `gorm:"column:campaign_id"`
	ReferrerID           string     `gorm:"column:referrer_id"`
	RequesterID          string     `gorm:"column:requester_id"`
	Amount               float64    `gorm:"column:amount"`
	Currency             string     `gorm:"column:currency"`
	Destination          string     `gorm:"column:destination"`
	Provider             string     `gorm:"column:provider"`
	DestinationAccount   string     `gorm:"column:destination_account"`
	PlatformFee          float64    `gorm:"column:platform_fee"`
	CommissionDeduction  float64    `gorm:"column:commission_deduction"`
	ProviderFee          float64    `gorm:"column:provider_fee"`
	NetAmount            float64    `gorm:"column:net_amount"`
	Status               string     `gorm:"column:status"`
	StatusReason         string     `gorm:"column:status_reason"`
	ApprovedBy           string     `gorm:"column:approved_by"`
	ApprovedAt           *time.Time `gorm:"column:approved_at"`
	TransactionReference string     `gorm:"column:transaction_reference"`
	Notes                string     `gorm:"column:notes"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
	CompletedAt          *time.Time `gorm:"column:completed_at"`
}

func (payoutModel) TableName() string { return "payouts" }

type auditModel struct {
	AuditID    string    `gorm:"column:audit_id;primaryKey"`
	PayoutID   string    `gorm:"column:payout_id"`
	Action     string    `gorm:"column:action"`
	FromStatus string    `gorm:"column:from_status"`
	ToStatus   string    `gorm:"column:to_status"`
	ActorID    string    `gorm:"column:actor_id"`
	Reason     string    `gorm:"column:reason"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (auditModel) TableName() string { return "payout_audit_trail" }

func payoutModelFromEntity(payout entities.Payout) payoutModel {
	return payoutModel{
		PayoutID:             payout.PayoutID,
		Family:               string(payout.Family),
		CampaignID:           payout.CampaignID,
		ReferrerID:           payout.ReferrerID,
		RequesterID:          payout.RequesterID,
		Amount:               payout.Amount,
		Currency:             payout.Currency,
		Destination:          string(payout.Destination),
		Provider:             payout.Provider,
		DestinationAccount:   payout.DestinationAccount,
		PlatformFee:          payout.PlatformFee,
		CommissionDeduction:  payout.CommissionDeduction,
		ProviderFee:          payout.ProviderFee,
		NetAmount:            payout.NetAmount,
		Status:               string(payout.Status),
		StatusReason:         payout.StatusReason,
		ApprovedBy:           payout.ApprovedBy,
		ApprovedAt:           payout.ApprovedAt,
		TransactionReference: payout.TransactionReference,
		Notes:                payout.Notes,
		CreatedAt:            payout.CreatedAt,
		UpdatedAt:            payout.UpdatedAt,
		CompletedAt:          payout.CompletedAt,
	}
}

func payoutUpdatesFromEntity(payout entities.Payout) map[string]any {
	return map[string]any{
		"platform_fee":          payout.PlatformFee,
		"commission_deduction":  payout.CommissionDeduction,
		"provider_fee":          payout.ProviderFee,
		"net_amount":            payout.NetAmount,
		"status":                string(payout.Status),
		"status_reason":         payout.StatusReason,
		"approved_by":           payout.ApprovedBy,
		"approved_at":           payout.ApprovedAt,
		"transaction_reference": payout.TransactionReference,
		"notes":                 payout.Notes,
		"updated_at":            payout.UpdatedAt,
		"completed_at":          payout.CompletedAt,
	}
}

func (m payoutModel) toEntity() entities.Payout {
	return entities.Payout{
		PayoutID:             m.PayoutID,
		Family:               entities.PayoutFamily(m.Family),
		CampaignID:           m.CampaignID,
		ReferrerID:           m.ReferrerID,
		RequesterID:          m.RequesterID,
		Amount:               m.Amount,
		Currency:             m.Currency,
		Destination:          entities.PayoutDestination(m.Destination),
		Provider:             m.Provider,
		DestinationAccount:   m.DestinationAccount,
		PlatformFee:          m.PlatformFee,
		CommissionDeduction:  m.CommissionDeduction,
		ProviderFee:          m.ProviderFee,
		NetAmount:            m.NetAmount,
		Status:               entities.PayoutStatus(m.Status),
		StatusReason:         m.StatusReason,
		ApprovedBy:           m.ApprovedBy,
		ApprovedAt:           m.ApprovedAt,
		TransactionReference: m.TransactionReference,
		Notes:                m.Notes,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
		CompletedAt:          m.CompletedAt,
	}
}

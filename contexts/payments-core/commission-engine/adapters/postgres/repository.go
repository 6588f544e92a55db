package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"chainraise/contexts/payments-core/commission-engine/domain/entities"
	domainerrors "chainraise/contexts/payments-core/commission-engine/domain/errors"

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

func (r *Repository) CreateReferrer(ctx context.Context, referrer entities.Referrer) error {
	row := referrerModelFromEntity(referrer)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidReferrerInput
		}
		return err
	}
	return nil
}

func (r *Repository) UpdateReferrer(ctx context.Context, referrer entities.Referrer) error {
	result := r.db.WithContext(ctx).
		Model(&referrerModel{}).
		Where("referrer_id = ?", strings.TrimSpace(referrer.ReferrerID)).
		Updates(map[string]any{
			"total_raised":      referrer.TotalRaised,
			"total_referrals":   referrer.TotalReferrals,
			"commission_earned": referrer.CommissionEarned,
			"commission_paid":   referrer.CommissionPaid,
			"updated_at":        referrer.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrReferrerNotFound
	}
	return nil
}

func (r *Repository) GetReferrer(ctx context.Context, referrerID string) (entities.Referrer, error) {
	var row referrerModel
	err := r.db.WithContext(ctx).
		Where("referrer_id = ?", strings.TrimSpace(referrerID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Referrer{}, domainerrors.ErrReferrerNotFound
		}
		return entities.Referrer{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) FindByUserAndCampaign(ctx context.Context, userID string, campaignID string) (entities.Referrer, bool, error) {
	var row referrerModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND campaign_id = ?", strings.TrimSpace(userID), strings.TrimSpace(campaignID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Referrer{}, false, nil
		}
		return entities.Referrer{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListByCampaign(ctx context.Context, campaignID string, limit int) ([]entities.Referrer, error) {
	tx := r.db.WithContext(ctx).
		Where("campaign_id = ?", strings.TrimSpace(campaignID)).
		Order("total_raised DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []referrerModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Referrer, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateRecord(ctx context.Context, record entities.CommissionRecord) error {
	row := commissionRecordModel{
		RecordID:       record.RecordID,
		DonationID:     record.DonationID,
		CampaignID:     record.CampaignID,
		ReferrerID:     record.ReferrerID,
		DonationAmount: record.DonationAmount,
		Rate:           record.Rate,
		Amount:         record.Amount,
		Paid:           record.Paid,
		CreatedAt:      record.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidReferrerInput
		}
		return err
	}
	return nil
}

func (r *Repository) FindByDonation(ctx context.Context, donationID string) (entities.CommissionRecord, bool, error) {
	var row commissionRecordModel
	err := r.db.WithContext(ctx).
		Where("donation_id = ?", strings.TrimSpace(donationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CommissionRecord{}, false, nil
		}
		return entities.CommissionRecord{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListUnpaidByCampaign(ctx context.Context, campaignID string) ([]entities.CommissionRecord, error) {
	var rows []commissionRecordModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND paid = ?", strings.TrimSpace(campaignID), false).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.CommissionRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListUnpaidByReferrer(ctx context.Context, referrerID string) ([]entities.CommissionRecord, error) {
	var rows []commissionRecordModel
	err := r.db.WithContext(ctx).
		Where("referrer_id = ? AND paid = ?", strings.TrimSpace(referrerID), false).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.CommissionRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) MarkPaidByCampaign(ctx context.Context, campaignID string, paidAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&commissionRecordModel{}).
		Where("campaign_id = ? AND paid = ?", strings.TrimSpace(campaignID), false).
		Updates(map[string]any{"paid": true, "paid_at": paidAt.UTC()}).
		Error
}

func (r *Repository) MarkPaidByReferrer(ctx context.Context, referrerID string, paidAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&commissionRecordModel{}).
		Where("referrer_id = ? AND paid = ?", strings.TrimSpace(referrerID), false).
		Updates(map[string]any{"paid": true, "paid_at": paidAt.UTC()}).
		Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type referrerModel struct {
	ReferrerID       string    `gorm:"column:referrer_id;primaryKey"`
	UserID           string    `gorm:"column:user_id"`
	CampaignID       string    `gorm:"column:campaign_id"`
	ReferralCode     string    `gorm:"column:referral_code"`
	TotalRaised      float64   `gorm:"column:total_raised"`
	TotalReferrals   int       `gorm:"column:total_referrals"`
	CommissionEarned float64   `gorm:"column:commission_earned"`
	CommissionPaid   bool      `gorm:"column:commission_paid"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (referrerModel) TableName() string { return "campaign_referrers" }

type commissionRecordModel struct {
	RecordID       string     `gorm:"column:record_id;primaryKey"`
	DonationID     string     `gorm:"column:donation_id;uniqueIndex"`
	CampaignID     string     `gorm:"column:campaign_id"`
	ReferrerID     string     `gorm:"column:referrer_id"`
	DonationAmount float64    `gorm:"column:donation_amount"`
	Rate           float64    `gorm:"column:rate"`
	Amount         float64    `gorm:"column:amount"`
	Paid           bool       `gorm:"column:paid"`
	PaidAt         *time.Time `gorm:"column:paid_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
}

func (commissionRecordModel) TableName() string { return "commission_records" }

func referrerModelFromEntity(referrer entities.Referrer) referrerModel {
	return referrerModel{
		ReferrerID:       referrer.ReferrerID,
		UserID:           referrer.UserID,
		CampaignID:       referrer.CampaignID,
		ReferralCode:     referrer.ReferralCode,
		TotalRaised:      referrer.TotalRaised,
		TotalReferrals:   referrer.TotalReferrals,
		CommissionEarned: referrer.CommissionEarned,
		CommissionPaid:   referrer.CommissionPaid,
		CreatedAt:        referrer.CreatedAt,
		UpdatedAt:        referrer.UpdatedAt,
	}
}

func (m referrerModel) toEntity() entities.Referrer {
	return entities.Referrer{
		ReferrerID:       m.ReferrerID,
		UserID:           m.UserID,
		CampaignID:       m.CampaignID,
		ReferralCode:     m.ReferralCode,
		TotalRaised:      m.TotalRaised,
		TotalReferrals:   m.TotalReferrals,
		CommissionEarned: m.CommissionEarned,
		CommissionPaid:   m.CommissionPaid,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func (m commissionRecordModel) toEntity() entities.CommissionRecord {
	return entities.CommissionRecord{
		RecordID:       m.RecordID,
		DonationID:     m.DonationID,
		CampaignID:     m.CampaignID,
		ReferrerID:     m.ReferrerID,
		DonationAmount: m.DonationAmount,
		Rate:           m.Rate,
		Amount:         m.Amount,
		Paid:           m.Paid,
		CreatedAt:      m.CreatedAt,
	}
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"

	"gorm.io/gorm"
)

var ErrChargeNotFound = errors.New("charge not found")

type ChargeRepository struct {
	DB *gorm.DB
}

func NewChargeRepository(db *gorm.DB) *ChargeRepository {
	return &ChargeRepository{
		DB: db,
	}
}

func (r *ChargeRepository) Create(ctx context.Context, charge *domain.Charge) error {
	if err := r.DB.WithContext(ctx).Create(&charge).Error; err != nil {
		return err
	}

	return nil
}

func (r *ChargeRepository) FindByReference(ctx context.Context, reference string) (domain.Charge, error) {
	var charge domain.Charge

	err := r.DB.WithContext(ctx).Where("reference = ?", reference).First(&charge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Charge{}, ErrChargeNotFound
		}
		return domain.Charge{}, err
	}

	return charge, nil
}

func (r *ChargeRepository) FindByUser(ctx context.Context, userID uint) ([]domain.Charge, error) {
	var charges []domain.Charge

	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&charges).Error
	if err != nil {
		return nil, err
	}

	return charges, nil
}

func (r *ChargeRepository) UpdateStatus(ctx context.Context, reference string, status domain.ChargeStatus) error {
	result := r.DB.WithContext(ctx).Model(&domain.Charge{}).
		Where("reference = ?", reference).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrChargeNotFound
	}

	return nil
}

// MarkCredited flips credited from false to true and reports whether this
// call won the flip. Exactly one caller per reference sees true, which is
// what keeps repeated status polls from double-crediting the bonus.
func (r *ChargeRepository) MarkCredited(ctx context.Context, reference string) (bool, error) {
	result := r.DB.WithContext(ctx).Model(&domain.Charge{}).
		Where("reference = ? AND credited = ?", reference, false).
		Updates(map[string]interface{}{
			"credited":   true,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

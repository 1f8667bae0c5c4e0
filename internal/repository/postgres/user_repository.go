package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"

	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		DB: db,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return err
	}

	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	var user domain.User

	err := r.DB.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var user domain.User

	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	return user, nil
}

// FindByEmailOrPhone backs the duplicate-identity check: registration must
// fail when either field collides, not just email.
func (r *UserRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) (domain.User, error) {
	var user domain.User

	err := r.DB.WithContext(ctx).Where("email = ? OR phone = ?", email, phone).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	return user, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User

	if err := r.DB.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// ApplyLedgerDelta applies a signed delta in a single UPDATE so two
// concurrent requests can never both decrement from the same stale read.
// Balance, gems and spins are clamped at zero in SQL; total_spins only ever
// grows. Returns the persisted record after the write.
func (r *UserRepository) ApplyLedgerDelta(ctx context.Context, id uint, delta domain.LedgerDelta) (domain.User, error) {
	result := r.DB.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"balance":     gorm.Expr("GREATEST(balance + ?, 0)", delta.Balance),
			"gems":        gorm.Expr("GREATEST(gems + ?, 0)", delta.Gems),
			"spins":       gorm.Expr("GREATEST(spins + ?, 0)", delta.Spins),
			"total_spins": gorm.Expr("total_spins + ?", delta.TotalSpinsIncrement),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return domain.User{}, result.Error
	}

	if result.RowsAffected == 0 {
		return domain.User{}, ErrUserNotFound
	}

	return r.FindByID(ctx, id)
}

// Activate flips is_activated and adds the bonus spins. The is_activated
// guard makes the manual activation path safe to call twice: the second
// call matches no row and credits nothing.
func (r *UserRepository) Activate(ctx context.Context, id uint, bonusSpins int64) (domain.User, error) {
	now := time.Now()
	result := r.DB.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND is_activated = ?", id, false).
		Updates(map[string]interface{}{
			"is_activated": true,
			"spins":        gorm.Expr("spins + ?", bonusSpins),
			"activated_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return domain.User{}, result.Error
	}

	// RowsAffected of zero means the account is either missing or already
	// activated; FindByID distinguishes the two.
	return r.FindByID(ctx, id)
}

// CreditActivation adds the bonus spins for a payment-driven activation.
// Unlike Activate it is not guarded by is_activated; idempotency is owned
// by the charge row's credited flag.
func (r *UserRepository) CreditActivation(ctx context.Context, id uint, bonusSpins int64) (domain.User, error) {
	now := time.Now()
	result := r.DB.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_activated": true,
			"spins":        gorm.Expr("spins + ?", bonusSpins),
			"activated_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return domain.User{}, result.Error
	}

	if result.RowsAffected == 0 {
		return domain.User{}, ErrUserNotFound
	}

	return r.FindByID(ctx, id)
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	result := r.DB.WithContext(ctx).Delete(&domain.User{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

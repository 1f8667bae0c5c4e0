package ledger

import (
	"context"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/logger"
)

// UserRepository contract interface. Implementations must apply deltas as a
// single atomic write clamped at zero; the service never read-modify-writes
// ledger values in application code.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	ApplyLedgerDelta(ctx context.Context, id uint, delta domain.LedgerDelta) (domain.User, error)
	Activate(ctx context.Context, id uint, bonusSpins int64) (domain.User, error)
	CreditActivation(ctx context.Context, id uint, bonusSpins int64) (domain.User, error)
}

// SessionRepository contract interface
type SessionRepository interface {
	Refresh(ctx context.Context, sessionID string, user domain.SessionUser) error
}

type ledgerService struct {
	userRepo    UserRepository
	sessionRepo SessionRepository
}

func NewLedgerService(userRepo UserRepository, sessionRepo SessionRepository) *ledgerService {
	return &ledgerService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

// ApplyDelta applies a signed client delta to the ledger and refreshes the
// session mirror with the persisted result before returning. The total
// spins counter is bumped by exactly one per call here, server-side;
// whatever the client sent for it is discarded upstream.
func (s *ledgerService) ApplyDelta(ctx context.Context, sessionID string, userID uint, delta domain.LedgerDelta) (domain.User, error) {
	delta.TotalSpinsIncrement = 1

	user, err := s.userRepo.ApplyLedgerDelta(ctx, userID, delta)
	if err != nil {
		logger.Error("Failed to apply ledger delta", err)
		return domain.User{}, err
	}

	if err := s.refreshMirror(ctx, sessionID, user); err != nil {
		return domain.User{}, err
	}

	user.Password = ""
	return user, nil
}

// Activate is the manual activation path. The store's is_activated guard
// makes a second call a no-op, so the bonus can never stack through this
// endpoint.
func (s *ledgerService) Activate(ctx context.Context, sessionID string, userID uint) (domain.User, error) {
	user, err := s.userRepo.Activate(ctx, userID, domain.ActivationBonusSpins)
	if err != nil {
		logger.Error("Failed to activate user", err)
		return domain.User{}, err
	}

	if err := s.refreshMirror(ctx, sessionID, user); err != nil {
		return domain.User{}, err
	}

	user.Password = ""
	return user, nil
}

// CreditActivation applies the payment-driven bonus. Callers must hold the
// per-reference credited flag before calling; this method itself always
// credits.
func (s *ledgerService) CreditActivation(ctx context.Context, sessionID string, userID uint) (domain.User, error) {
	user, err := s.userRepo.CreditActivation(ctx, userID, domain.ActivationBonusSpins)
	if err != nil {
		logger.Error("Failed to credit activation bonus", err)
		return domain.User{}, err
	}

	if err := s.refreshMirror(ctx, sessionID, user); err != nil {
		return domain.User{}, err
	}

	user.Password = ""
	return user, nil
}

func (s *ledgerService) refreshMirror(ctx context.Context, sessionID string, user domain.User) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.Refresh(ctx, sessionID, domain.NewSessionUser(user)); err != nil {
		logger.Error("Failed to refresh session mirror", err)
		return err
	}

	return nil
}

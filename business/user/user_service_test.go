package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"

	"github.com/go-playground/validator/v10"
)

type fakeUserRepo struct {
	users  map[uint]domain.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]domain.User), nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, errors.New("user not found")
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, errors.New("user not found")
}

func (r *fakeUserRepo) FindByEmailOrPhone(_ context.Context, email, phone string) (domain.User, error) {
	for _, u := range r.users {
		if u.Email == email || u.Phone == phone {
			return u, nil
		}
	}
	return domain.User{}, errors.New("user not found")
}

func (r *fakeUserRepo) FindAll(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.users[id]; !ok {
		return errors.New("user not found")
	}
	delete(r.users, id)
	return nil
}

type fakeSessionRepo struct {
	sessions   map[string]domain.SessionData
	failCreate bool
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]domain.SessionData)}
}

func (r *fakeSessionRepo) Create(_ context.Context, sessionID string, data domain.SessionData, _ time.Duration) error {
	if r.failCreate {
		return errors.New("redis down")
	}
	r.sessions[sessionID] = data
	return nil
}

func (r *fakeSessionRepo) Destroy(_ context.Context, sessionID string) error {
	delete(r.sessions, sessionID)
	return nil
}

func validInput() RegisterInput {
	return RegisterInput{
		FirstName:       "Jane",
		LastName:        "Wanjiku",
		Email:           "jane@example.com",
		Phone:           "0712345678",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func newService(userRepo *fakeUserRepo, sessionRepo *fakeSessionRepo) *userService {
	return NewUserService(userRepo, sessionRepo, validator.New(), "test-secret", 24*time.Hour, 12*time.Hour)
}

func TestRegisterShortPasswordCreatesNothing(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := newService(userRepo, newFakeSessionRepo())

	input := validInput()
	input.Password = "abc12"
	input.ConfirmPassword = "abc12"

	_, _, err := svc.Register(context.Background(), input)
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if len(userRepo.users) != 0 {
		t.Errorf("store gained %d entities, want 0", len(userRepo.users))
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := newService(userRepo, newFakeSessionRepo())

	input := validInput()
	input.ConfirmPassword = "different1"

	_, _, err := svc.Register(context.Background(), input)
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestRegisterDuplicateEmailOrPhone(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := newService(userRepo, newFakeSessionRepo())

	if _, _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	sameEmail := validInput()
	sameEmail.Phone = "0799999999"
	if _, _, err := svc.Register(context.Background(), sameEmail); !errors.Is(err, ErrDuplicateIdentity) {
		t.Errorf("duplicate email: expected ErrDuplicateIdentity, got %v", err)
	}

	samePhone := validInput()
	samePhone.Email = "other@example.com"
	if _, _, err := svc.Register(context.Background(), samePhone); !errors.Is(err, ErrDuplicateIdentity) {
		t.Errorf("duplicate phone: expected ErrDuplicateIdentity, got %v", err)
	}

	if len(userRepo.users) != 1 {
		t.Errorf("store has %d entities, want 1", len(userRepo.users))
	}
}

func TestRegisterDefaultsAndMirror(t *testing.T) {
	userRepo := newFakeUserRepo()
	sessionRepo := newFakeSessionRepo()
	svc := newService(userRepo, sessionRepo)

	created, sessionID, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if created.Spins != domain.DefaultSpins {
		t.Errorf("spins = %d, want %d", created.Spins, domain.DefaultSpins)
	}
	if created.IsActivated {
		t.Error("new account must not be activated")
	}
	if created.Password != "" {
		t.Error("returned record must not carry the credential")
	}

	session, ok := sessionRepo.sessions[sessionID]
	if !ok {
		t.Fatal("register did not create a session")
	}
	if session.AccessToken == "" {
		t.Error("mirror is missing the derived access token")
	}

	// the mirror type has no password field at all; check the stored hash
	// never equals the plaintext either way
	stored := userRepo.users[created.ID]
	if stored.Password == "secret1" || stored.Password == "" {
		t.Error("stored credential must be a hash")
	}
}

func TestLoginBadCredential(t *testing.T) {
	userRepo := newFakeUserRepo()
	sessionRepo := newFakeSessionRepo()
	svc := newService(userRepo, sessionRepo)

	if _, _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "jane@example.com", "wrongpass"); !errors.Is(err, ErrBadCredential) {
		t.Errorf("wrong password: expected ErrBadCredential, got %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "secret1"); !errors.Is(err, ErrBadCredential) {
		t.Errorf("unknown email: expected ErrBadCredential, got %v", err)
	}
}

func TestLoginSessionSaveFailureIsNotAuthenticated(t *testing.T) {
	userRepo := newFakeUserRepo()
	sessionRepo := newFakeSessionRepo()
	svc := newService(userRepo, sessionRepo)

	if _, _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	sessionRepo.failCreate = true

	_, sessionID, err := svc.Login(context.Background(), "jane@example.com", "secret1")
	if err == nil {
		t.Fatal("expected error when the session cannot be saved")
	}
	if sessionID != "" {
		t.Error("no session id may be handed out on a failed save")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc := newService(newFakeUserRepo(), newFakeSessionRepo())

	if err := svc.Logout(context.Background(), "gone"); err != nil {
		t.Errorf("logout of unknown session errored: %v", err)
	}
	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Errorf("logout with empty session errored: %v", err)
	}
}

package user

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Kkibe/spin-and-win-to-mpesa/domain"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/logger"
	"github.com/Kkibe/spin-and-win-to-mpesa/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// UserRepository contract interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByEmailOrPhone(ctx context.Context, email, phone string) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id uint) error
}

// SessionRepository contract interface
type SessionRepository interface {
	Create(ctx context.Context, sessionID string, data domain.SessionData, ttl time.Duration) error
	Destroy(ctx context.Context, sessionID string) error
}

var (
	ErrDuplicateIdentity = errors.New("email or phone already registered")
	ErrBadCredential     = errors.New("invalid email or password")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrWeakPassword      = errors.New("password must be at least 6 characters")
)

// MinPasswordLength is enforced before hashing.
const MinPasswordLength = 6

type RegisterInput struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

type userService struct {
	userRepo    UserRepository
	sessionRepo SessionRepository
	validate    *validator.Validate
	jwtSecret   string
	sessionTTL  time.Duration
	tokenTTL    time.Duration
}

func NewUserService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	validate *validator.Validate,
	jwtSecret string,
	sessionTTL time.Duration,
	tokenTTL time.Duration,
) *userService {
	return &userService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		validate:    validate,
		jwtSecret:   jwtSecret,
		sessionTTL:  sessionTTL,
		tokenTTL:    tokenTTL,
	}
}

// Register creates the account and logs it straight in: a fresh session
// mirror is written before anything is returned. The account starts with
// the default spin allowance and no activation.
func (s *userService) Register(ctx context.Context, input RegisterInput) (domain.User, string, error) {
	if err := s.validate.Var(input.Email, "required,email"); err != nil {
		logger.Error("Invalid email format", err)
		return domain.User{}, "", errors.New("invalid email format")
	}

	if err := s.validate.Var(input.Phone, "required"); err != nil {
		logger.Error("Missing phone number", err)
		return domain.User{}, "", errors.New("phone number is required")
	}

	if err := s.validate.Var(input.FirstName, "required"); err != nil {
		logger.Error("Missing first name", err)
		return domain.User{}, "", errors.New("first name is required")
	}

	if err := s.validate.Var(input.Password, "required,min=6"); err != nil {
		logger.Error("Invalid user password", err)
		return domain.User{}, "", ErrWeakPassword
	}

	if input.Password != input.ConfirmPassword {
		return domain.User{}, "", ErrPasswordMismatch
	}

	// duplicate check matches on email OR phone
	existingUser, err := s.userRepo.FindByEmailOrPhone(ctx, input.Email, input.Phone)
	if err == nil && existingUser.ID > 0 {
		logger.Error("Identity already exists", "email", input.Email)
		return domain.User{}, "", ErrDuplicateIdentity
	}

	passwordHash, err := utils.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return domain.User{}, "", errors.New("failed to hash password")
	}

	newUser := domain.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Password:  passwordHash,
		Spins:     domain.DefaultSpins,
	}

	if err := s.userRepo.Create(ctx, &newUser); err != nil {
		logger.Error("Failed to create new user", err)
		return domain.User{}, "", err
	}

	sessionID, err := s.createSession(ctx, newUser)
	if err != nil {
		return domain.User{}, "", err
	}

	newUser.Password = ""
	return newUser, sessionID, nil
}

// Login verifies the credential and creates the session mirror. A failed
// session write is an error, never a silent authenticated success.
func (s *userService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		logger.Error("Invalid user credentials", err)
		return domain.User{}, "", ErrBadCredential
	}

	if ok := utils.CheckPassword(password, user.Password); !ok {
		logger.Error("User password incorrect", "email", email)
		return domain.User{}, "", ErrBadCredential
	}

	sessionID, err := s.createSession(ctx, user)
	if err != nil {
		return domain.User{}, "", err
	}

	user.Password = ""
	return user, sessionID, nil
}

func (s *userService) createSession(ctx context.Context, user domain.User) (string, error) {
	userIDStr := strconv.FormatUint(uint64(user.ID), 10)
	token, err := utils.GenerateJWT(s.jwtSecret, userIDStr, user.IsAdmin, s.tokenTTL)
	if err != nil {
		logger.Error("Failed to generate token", err)
		return "", errors.New("failed to generate token")
	}

	sessionID := uuid.NewString()
	data := domain.SessionData{
		User:        domain.NewSessionUser(user),
		AccessToken: token,
		IssuedAt:    time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, sessionID, data, s.sessionTTL); err != nil {
		logger.Error("Failed to save session", err)
		return "", errors.New("failed to save session")
	}

	return sessionID, nil
}

// Logout destroys the session mirror. Idempotent; destroying a session
// that is already gone is not an error.
func (s *userService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.Destroy(ctx, sessionID); err != nil {
		logger.Error("Failed to destroy session", err)
		return err
	}

	return nil
}

// GetUserByID retrieves a user by ID with the credential stripped
func (s *userService) GetUserByID(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("Failed to get user by ID", err)
		return domain.User{}, err
	}

	user.Password = ""
	return user, nil
}

// GetAllUsers retrieves all users
func (s *userService) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to get all users", err)
		return nil, err
	}

	for i := range users {
		users[i].Password = ""
	}

	return users, nil
}

// DeleteUser removes an account and the caller's session with it.
func (s *userService) DeleteUser(ctx context.Context, id uint, sessionID string) error {
	if _, err := s.userRepo.FindByID(ctx, id); err != nil {
		logger.Error("User not found for deletion", err)
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		logger.Error("Failed to delete user", err)
		return err
	}

	return s.Logout(ctx, sessionID)
}

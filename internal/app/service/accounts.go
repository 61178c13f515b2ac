package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/go-link-gate/internal/models"
	"github.com/atinyakov/go-link-gate/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPendingApproval    = errors.New("account pending approval")
	ErrInvalidPlan        = errors.New("unknown plan")
)

// registration holds the field rules of a new account.
type registration struct {
	Name     string `validate:"required,alphanum,min=3,max=32"`
	Password string `validate:"required,min=6,max=72"`
}

// AccountService implements registration, login and the admin workflow on
// top of the account directory.
type AccountService struct {
	store    AccountStore
	validate *validator.Validate
	logger   *zap.Logger
	cost     int
}

func NewAccountService(store AccountStore, logger *zap.Logger) *AccountService {
	return &AccountService{
		store:    store,
		validate: validator.New(),
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost.
func (s *AccountService) WithHashCost(cost int) *AccountService {
	s.cost = cost
	return s
}

// Register creates a pending free account. The name is normalized before
// validation.
func (s *AccountService) Register(ctx context.Context, name, password string) (*models.Account, error) {
	return s.create(ctx, name, password, models.RoleUser, models.PlanFree, false)
}

func (s *AccountService) create(ctx context.Context, name, password string, role models.Role, plan models.Plan, approved bool) (*models.Account, error) {
	reg := registration{Name: models.NormalizeName(name), Password: password}
	if err := s.validate.Struct(reg); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a := &models.Account{
		Name:         reg.Name,
		PasswordHash: string(hash),
		Role:         role,
		Plan:         plan,
		Approved:     approved,
	}
	if err := s.store.CreateAccount(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("account registered", zap.String("name", a.Name), zap.String("role", string(role)))
	return a, nil
}

// Authenticate checks the credentials. Unknown names and wrong passwords both
// yield ErrInvalidCredentials; a correct password on a pending account yields
// ErrPendingApproval.
func (s *AccountService) Authenticate(ctx context.Context, name, password string) (*models.Account, error) {
	a, err := s.store.FindByName(ctx, models.NormalizeName(name))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !a.Approved {
		return nil, ErrPendingApproval
	}
	return a, nil
}

func (s *AccountService) Find(ctx context.Context, name string) (*models.Account, error) {
	return s.store.FindByName(ctx, models.NormalizeName(name))
}

func (s *AccountService) List(ctx context.Context) ([]models.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *AccountService) Approve(ctx context.Context, name string) error {
	if err := s.store.SetApproved(ctx, models.NormalizeName(name), true); err != nil {
		return err
	}
	s.logger.Info("account approved", zap.String("name", name))
	return nil
}

func (s *AccountService) SetPlan(ctx context.Context, name string, plan models.Plan) error {
	if !plan.Valid() {
		return ErrInvalidPlan
	}
	if err := s.store.SetPlan(ctx, models.NormalizeName(name), plan); err != nil {
		return err
	}
	s.logger.Info("account plan changed", zap.String("name", name), zap.String("plan", string(plan)))
	return nil
}

// Delete removes the account. Its links stay and are served as free.
func (s *AccountService) Delete(ctx context.Context, name string) error {
	if err := s.store.DeleteAccount(ctx, models.NormalizeName(name)); err != nil {
		return err
	}
	s.logger.Info("account deleted", zap.String("name", name))
	return nil
}

// EnsureAdmin seeds an approved premium administrator unless the name is
// already taken.
func (s *AccountService) EnsureAdmin(ctx context.Context, name, password string) error {
	_, err := s.create(ctx, name, password, models.RoleAdmin, models.PlanPremium, true)
	if errors.Is(err, storage.ErrDuplicate) {
		s.logger.Debug("bootstrap admin already present", zap.String("name", name))
		return nil
	}
	return err
}

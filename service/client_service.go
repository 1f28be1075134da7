package service

import (
	"context"
	"fmt"
	"strings"

	"agencyops/events"
	"agencyops/models"

	log "github.com/sirupsen/logrus"
)

type clientService struct {
	uowFactory UnitOfWorkFactory
}

// NewClientService creates a new client service
func NewClientService(uowFactory UnitOfWorkFactory) ClientService {
	return &clientService{
		uowFactory: uowFactory,
	}
}

func (s *clientService) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.DepartmentRepository().List(ctx)
}

func (s *clientService) CreateClient(ctx context.Context, name string, departmentID int, cfg *models.FeeConfig) (*models.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: client name is required", models.ErrValidation)
	}

	feeConfig := models.DefaultFeeConfig()
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		feeConfig = *cfg
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireDepartment(ctx, uow, departmentID); err != nil {
		return nil, err
	}

	client := &models.Client{
		Name:         name,
		DepartmentID: departmentID,
		FeeConfig:    feeConfig,
		Active:       true,
	}
	if err := uow.ClientRepository().Create(ctx, client); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"clientID":     client.ID,
		"departmentID": departmentID,
		"feeType":      feeConfig.Type,
	}).Info("Client created")

	return client, nil
}

func (s *clientService) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return getClient(ctx, uow, id)
}

func (s *clientService) ListClients(ctx context.Context, activeOnly bool) ([]*models.Client, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.ClientRepository().List(ctx, activeOnly)
}

func (s *clientService) UpdateClient(ctx context.Context, id int64, update models.ClientUpdate) (*models.Client, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	client, err := getClient(ctx, uow, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: client name is required", models.ErrValidation)
		}
		client.Name = name
	}
	if update.DepartmentID != nil {
		if err := requireDepartment(ctx, uow, *update.DepartmentID); err != nil {
			return nil, err
		}
		client.DepartmentID = *update.DepartmentID
	}
	if update.Active != nil {
		client.Active = *update.Active
	}

	if err := uow.ClientRepository().Update(ctx, client); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return client, nil
}

func (s *clientService) UpdateFeeConfig(ctx context.Context, id int64, cfg models.FeeConfig) (*models.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	client, err := getClient(ctx, uow, id)
	if err != nil {
		return nil, err
	}

	if err := uow.ClientRepository().UpdateFeeConfig(ctx, id, cfg); err != nil {
		return nil, err
	}
	client.FeeConfig = cfg

	uow.EventBus().Publish(events.ClientFeeConfigChangedEvent{ClientID: id, FeeType: cfg.Type})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return client, nil
}

func (s *clientService) QuoteFee(ctx context.Context, id int64, investment models.Cents, platformCount int) (*models.FeeBreakdown, error) {
	if investment < 0 {
		return nil, fmt.Errorf("%w: investment cannot be negative", models.ErrInvalidAmount)
	}

	client, err := s.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}

	breakdown, err := client.FeeConfig.Calculate(investment, platformCount)
	if err != nil {
		return nil, err
	}
	return &breakdown, nil
}

// getClient loads a client, converting a missing row into models.ErrNotFound
func getClient(ctx context.Context, uow UnitOfWork, id int64) (*models.Client, error) {
	client, err := uow.ClientRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("client %d: %w", id, models.ErrNotFound)
	}
	return client, nil
}

func requireDepartment(ctx context.Context, uow UnitOfWork, id int) error {
	department, err := uow.DepartmentRepository().GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get department: %w", err)
	}
	if department == nil {
		return fmt.Errorf("%w: unknown department %d", models.ErrValidation, id)
	}
	return nil
}

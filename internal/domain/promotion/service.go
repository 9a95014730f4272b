package promotion

import (
	"context"

	"motodealer/internal/core/apperror"
	"motodealer/internal/core/id"
	"motodealer/pkg/logger"
)

// Service provides the promotion catalogue and composition rules.
type Service struct {
	repo     Repository
	engine   *EligibilityEngine
	composer *Composer
}

// NewService creates a new promotion service.
func NewService(repo Repository, engine *EligibilityEngine, composer *Composer) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		composer: composer,
	}
}

// Composer returns the compatibility rules the service applies.
func (s *Service) Composer() *Composer {
	return s.composer
}

// Create validates and stores a promotion.
func (s *Service) Create(ctx context.Context, p *Promotion) error {
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if err := s.engine.Check(p.Eligibility); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}

	logger.Info(ctx, "promotion created", "promotion_id", p.ID.String(), "name", p.Name)
	return nil
}

// List returns the catalogue.
func (s *Service) List(ctx context.Context, filter Filter) ([]Promotion, error) {
	return s.repo.List(ctx, filter)
}

// GetByIDs loads promotions preserving the given order.
func (s *Service) GetByIDs(ctx context.Context, ids []id.ID) ([]Promotion, error) {
	if len(ids) == 0 {
		return []Promotion{}, nil
	}
	return s.repo.GetByIDs(ctx, ids)
}

// Applicable returns the enabled promotions sale qualifies for.
func (s *Service) Applicable(ctx context.Context, sale SaleContext) ([]Promotion, error) {
	all, err := s.repo.List(ctx, Filter{PaymentMethod: sale.PaymentMethod, OnlyEnabled: true})
	if err != nil {
		return nil, err
	}
	return s.engine.Applicable(ctx, all, sale), nil
}

// CheckCompatibility reports whether candidate may be added to selected.
func (s *Service) CheckCompatibility(
	ctx context.Context,
	candidateID id.ID,
	selectedIDs []id.ID,
	method PaymentMethod,
) (bool, error) {
	for _, sel := range selectedIDs {
		if sel == candidateID {
			return false, apperror.NewValidation("candidate is already selected").
				WithDetail("candidateId", candidateID.String())
		}
	}

	loaded, err := s.repo.GetByIDs(ctx, append([]id.ID{candidateID}, selectedIDs...))
	if err != nil {
		return false, err
	}
	return s.composer.Compatible(loaded[0], loaded[1:], method), nil
}

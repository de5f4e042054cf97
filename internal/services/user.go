package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/nutripath-backend/internal/data/repos/auth"
	"github.com/yungbote/nutripath-backend/internal/journey/catalog"
	"github.com/yungbote/nutripath-backend/internal/pkg/logger"
	"github.com/yungbote/nutripath-backend/internal/types"
)

type UserService interface {
	GetMe(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdatePersona(ctx context.Context, userID uuid.UUID, persona string) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo auth.UserRepo
	catalog  *catalog.Catalog
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo auth.UserRepo, cat *catalog.Catalog) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
		catalog:  cat,
	}
}

func (us *userService) GetMe(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found")
	}
	return users[0], nil
}

// UpdatePersona changes the persona going forward. Stages already seeded
// keep their current templates; only future seeding uses the new persona.
func (us *userService) UpdatePersona(ctx context.Context, userID uuid.UUID, persona string) (*types.User, error) {
	persona = strings.TrimSpace(persona)
	if persona == "" {
		return nil, fmt.Errorf("persona required")
	}
	if us.catalog != nil && !us.catalog.HasPersona(persona) {
		return nil, fmt.Errorf("unknown persona %q", persona)
	}
	if err := us.userRepo.UpdatePersona(ctx, nil, userID, persona); err != nil {
		return nil, fmt.Errorf("failed to update persona: %w", err)
	}
	return us.GetMe(ctx, userID)
}

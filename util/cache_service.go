// util/cache_service.go

package util

import (
	"context"

	"github.com/campusmesh/campus/api/db"
	"github.com/campusmesh/campus/api/model"
)

type CacheService struct{}

func NewCacheService() *CacheService {
	return &CacheService{}
}

func (c *CacheService) GetInstitutionRole(ctx context.Context, roleID string) (*model.InstitutionRole, error) {
	return db.GetCachedInstitutionRole(ctx, roleID)
}

func (c *CacheService) SetInstitutionRole(ctx context.Context, role model.InstitutionRole) error {
	return db.CacheInstitutionRole(ctx, &role)
}

func (c *CacheService) DeleteInstitutionRole(ctx context.Context, roleID string) error {
	return db.DeleteCachedInstitutionRole(ctx, roleID)
}

func (c *CacheService) GetInstitution(ctx context.Context, institutionID string) (*model.Institution, error) {
	return db.GetCachedInstitution(ctx, institutionID)
}

func (c *CacheService) SetInstitution(ctx context.Context, institution model.Institution) error {
	return db.CacheInstitution(ctx, &institution)
}

func (c *CacheService) DeleteInstitution(ctx context.Context, institutionID string) error {
	return db.DeleteCachedInstitution(ctx, institutionID)
}

func (c *CacheService) GetInstitutionUser(ctx context.Context, userID string) (*model.InstitutionUser, error) {
	return db.GetCachedInstitutionUser(ctx, userID)
}

func (c *CacheService) SetInstitutionUser(ctx context.Context, user model.InstitutionUser) error {
	return db.CacheInstitutionUser(ctx, &user)
}

func (c *CacheService) DeleteInstitutionUser(ctx context.Context, userID string) error {
	return db.DeleteCachedInstitutionUser(ctx, userID)
}

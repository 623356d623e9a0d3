// audit/service.go
package audit

import (
	"context"
	"time"
)

type Service interface {
	LogChange(ctx context.Context, entry Entry) error
	QueryLogs(ctx context.Context, from, to time.Time, userID, entityID string) ([]Entry, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) LogChange(ctx context.Context, entry Entry) error {
	return s.repo.LogChange(ctx, entry)
}

func (s *service) QueryLogs(ctx context.Context, from, to time.Time, userID, entityID string) ([]Entry, error) {
	return s.repo.QueryLogs(ctx, from, to, userID, entityID)
}

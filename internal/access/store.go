package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormSessions stores sessions in Postgres.
type GormSessions struct {
	db *gorm.DB
}

func NewGormSessions(db *gorm.DB) *GormSessions {
	return &GormSessions{db: db}
}

func (s *GormSessions) Create(ctx context.Context, session Session) error {
	return s.db.WithContext(ctx).Create(&session).Error
}

func (s *GormSessions) Find(ctx context.Context, id string) (Session, error) {
	var session Session
	err := s.db.WithContext(ctx).First(&session, "session_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("finding session: %w", err)
	}
	return session, nil
}

func (s *GormSessions) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&Session{}, "session_id = ?", id).Error
}

func (s *GormSessions) DeleteExpired(ctx context.Context, now time.Time) error {
	return s.db.WithContext(ctx).Delete(&Session{}, "expires_at <= ?", now).Error
}

package store

import (
	"context"

	"solar-fleet-backend/internal/model"
)

func (s *gormStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *gormStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormStore) SaveUser(ctx context.Context, u *model.User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

func (s *gormStore) CreateMembership(ctx context.Context, m *model.Membership) error {
	if m.ID == "" {
		m.ID = model.NewID()
	}
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *gormStore) GetMembership(ctx context.Context, userID, tenantID string) (*model.Membership, error) {
	var m model.Membership
	err := s.db.WithContext(ctx).
		First(&m, "user_id = ? AND tenant_id = ?", userID, tenantID).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormStore) ListMemberships(ctx context.Context, userID string) ([]model.Membership, error) {
	var ms []model.Membership
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&ms).Error
	return ms, err
}

func (s *gormStore) SaveMembership(ctx context.Context, m *model.Membership) error {
	return s.db.WithContext(ctx).Save(m).Error
}

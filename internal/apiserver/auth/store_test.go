package auth

import (
	"context"
	"sort"

	"activities-admin/internal/shared/model"
	"activities-admin/internal/shared/storage"
)

// fakeUserStore 测试用内存 UserStore
// 与 mongostore 行为对齐：点查询缺失返回 (nil, nil)，默认投影剥离 password_hash
type fakeUserStore struct {
	users map[string]*model.User // key: ID
	err   error                  // 非 nil 时所有方法返回该错误
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*model.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func stripped(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}

func (s *fakeUserStore) CreateUser(_ context.Context, user *model.User) error {
	if s.err != nil {
		return s.err
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	c := *user
	s.users[user.ID] = &c
	return nil
}

func (s *fakeUserStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return stripped(s.users[id]), nil
}

func (s *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			return stripped(u), nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) GetUserWithCredentials(_ context.Context, email string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) ListUsersByRole(_ context.Context, role model.UserRole) ([]*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*model.User
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, stripped(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if out == nil {
		out = []*model.User{}
	}
	return out, nil
}

func (s *fakeUserStore) DeleteUserByRole(_ context.Context, id string, role model.UserRole) error {
	if s.err != nil {
		return s.err
	}
	u, ok := s.users[id]
	if !ok || u.Role != role {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

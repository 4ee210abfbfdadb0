package service

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumina/internal/db"
	"github.com/lumina/internal/log"
	"github.com/lumina/internal/store"
)

// MinPasswordLength 是新密码的最小长度。
const MinPasswordLength = 8

// dummyHash 用于用户不存在时仍执行一次比较，避免通过耗时区分账号是否存在。
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("lumina-dummy-password"), bcrypt.MinCost)

// AccountService 管理后台账号。
type AccountService struct {
	store store.Store
	cost  int
}

// NewAccountService 构造 AccountService。
func NewAccountService(st store.Store) *AccountService {
	return &AccountService{store: st, cost: bcrypt.DefaultCost}
}

// Authenticate 校验用户名与密码，失败统一返回 ErrInvalidCredentials。
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*db.User, error) {
	user, err := s.store.Users().GetByUsername(ctx, trim(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get 按 ID 查找账号。
func (s *AccountService) Get(ctx context.Context, id string) (*db.User, error) {
	user, err := s.store.Users().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Create 新建管理员账号，用户名已存在时返回 ErrUserExists。
func (s *AccountService) Create(ctx context.Context, username, password string) (*db.User, error) {
	username = trim(username)
	if username == "" {
		return nil, invalidField("username", "username is required")
	}
	if len(password) < MinPasswordLength {
		return nil, invalidField("password", "password must be at least %d characters", MinPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := &db.User{Username: username, Password: string(hashed), Role: db.RoleAdmin}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, errors.Wrap(err, "create user")
	}

	log.Logger.Info("admin account created", zap.String("username", username))
	return user, nil
}

// EnsureUser 存在性检查：若提供的用户名与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的用户。
func (s *AccountService) EnsureUser(ctx context.Context, username, password string) error {
	username = trim(username)
	password = trim(password)
	if username == "" || password == "" {
		return nil
	}

	_, err := s.store.Users().GetByUsername(ctx, username)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return errors.Wrap(err, "load super root user")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	if err := s.store.Users().Create(ctx, &db.User{Username: username, Password: string(hashed), Role: db.RoleAdmin}); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil
		}
		return errors.Wrap(err, "create super root user")
	}

	log.Logger.Info("super root user ensured", zap.String("username", username))
	return nil
}

// ChangePassword 校验当前密码后替换为新密码。
func (s *AccountService) ChangePassword(ctx context.Context, id, current, next string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return invalidField("current", "current password is incorrect")
	}
	if len(next) < MinPasswordLength {
		return invalidField("new", "new password must be at least %d characters", MinPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	if err := s.store.Users().UpdatePassword(ctx, user.ID, string(hashed)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return errors.Wrap(err, "update password")
	}

	log.Logger.Info("admin password changed", zap.String("username", user.Username))
	return nil
}

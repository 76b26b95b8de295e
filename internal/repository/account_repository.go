package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gamexhub/gamex-panel/internal/domain"
	"github.com/gamexhub/gamex-panel/internal/observability"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrDuplicateAccount     = errors.New("email or username already registered")
	ErrSuperadminExists     = errors.New("superadmin already exists")
	ErrStalePasswordVersion = errors.New("password version changed")
)

type AccountListQuery struct {
	PageRequest
	Roles      []domain.Role
	Descending bool
	// Paged limits the result to one normalized page; otherwise every match is returned.
	Paged bool
}

// AccountPatch holds the columns of a partial update. Nil fields are left untouched.
type AccountPatch struct {
	Email        *string
	Username     *string
	PasswordHash *string
	Role         *domain.Role
}

func (p AccountPatch) Empty() bool {
	return p.Email == nil && p.Username == nil && p.PasswordHash == nil && p.Role == nil
}

type AccountRepository interface {
	FindByID(ctx context.Context, userID string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	ExistsOther(ctx context.Context, email, username, excludeUserID string) (bool, error)
	Create(ctx context.Context, account *domain.Account) error
	CreateSuperadmin(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, userID string, allowedRoles []domain.Role, patch AccountPatch) error
	UpdatePasswordIfVersion(ctx context.Context, userID string, version int64, passwordHash string) error
	Delete(ctx context.Context, userID string, allowedRoles []domain.Role) error
	List(ctx context.Context, query AccountListQuery) (PageResult[domain.Account], error)
}

type GormAccountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) AccountRepository { return &GormAccountRepository{db: db} }

func (r *GormAccountRepository) FindByID(ctx context.Context, userID string) (*domain.Account, error) {
	return r.findOne(ctx, "find_by_id", "user_id = ?", userID)
}

func (r *GormAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, "find_by_email", "email = ?", email)
}

func (r *GormAccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, "find_by_username", "username = ?", username)
}

func (r *GormAccountRepository) findOne(ctx context.Context, op, where string, arg any) (*domain.Account, error) {
	var a domain.Account
	err := r.db.WithContext(ctx).Where(where, arg).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "account", op, "not_found")
			return nil, ErrAccountNotFound
		}
		observability.RecordRepositoryOperation(ctx, "account", op, "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "account", op, "success")
	return &a, nil
}

// ExistsOther reports whether an account other than excludeUserID already uses
// email or username. Empty arguments are ignored.
func (r *GormAccountRepository) ExistsOther(ctx context.Context, email, username, excludeUserID string) (bool, error) {
	if email == "" && username == "" {
		return false, nil
	}
	q := r.db.WithContext(ctx).Model(&domain.Account{})
	switch {
	case email != "" && username != "":
		q = q.Where("email = ? OR username = ?", email, username)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		q = q.Where("username = ?", username)
	}
	if excludeUserID != "" {
		q = q.Where("user_id <> ?", excludeUserID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "account", "exists_other", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(ctx, "account", "exists_other", "success")
	return n > 0, nil
}

func (r *GormAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(ctx, "account", "create", "conflict")
			return ErrDuplicateAccount
		}
		observability.RecordRepositoryOperation(ctx, "account", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "account", "create", "success")
	return nil
}

// CreateSuperadmin inserts account as the only superadmin. The count check and
// insert share a transaction; the partial unique index catches concurrent callers.
func (r *GormAccountRepository) CreateSuperadmin(ctx context.Context, account *domain.Account) error {
	account.Role = domain.RoleSuperadmin
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Account{}).Where("role = ?", domain.RoleSuperadmin).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrSuperadminExists
		}
		return tx.Create(account).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		var n int64
		if cerr := r.db.WithContext(ctx).Model(&domain.Account{}).Where("role = ?", domain.RoleSuperadmin).Count(&n).Error; cerr == nil && n > 0 {
			err = ErrSuperadminExists
		} else {
			err = ErrDuplicateAccount
		}
	}
	switch {
	case err == nil:
		observability.RecordRepositoryOperation(ctx, "account", "create_superadmin", "success")
	case errors.Is(err, ErrSuperadminExists), errors.Is(err, ErrDuplicateAccount):
		observability.RecordRepositoryOperation(ctx, "account", "create_superadmin", "conflict")
	default:
		observability.RecordRepositoryOperation(ctx, "account", "create_superadmin", "error")
	}
	return err
}

// Update applies patch to the account when its current role is in allowedRoles.
// A new password hash also bumps password_version so outstanding reset tokens die.
func (r *GormAccountRepository) Update(ctx context.Context, userID string, allowedRoles []domain.Role, patch AccountPatch) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.Username != nil {
		updates["username"] = *patch.Username
	}
	if patch.PasswordHash != nil {
		updates["password"] = *patch.PasswordHash
		updates["password_version"] = gorm.Expr("password_version + 1")
	}
	if patch.Role != nil {
		updates["role"] = *patch.Role
	}
	q := r.db.WithContext(ctx).Model(&domain.Account{}).Where("user_id = ?", userID)
	if len(allowedRoles) > 0 {
		q = q.Where("role IN ?", allowedRoles)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(ctx, "account", "update", "conflict")
			return ErrDuplicateAccount
		}
		observability.RecordRepositoryOperation(ctx, "account", "update", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "account", "update", "not_found")
		return ErrAccountNotFound
	}
	observability.RecordRepositoryOperation(ctx, "account", "update", "success")
	return nil
}

// UpdatePasswordIfVersion sets the password only while password_version still
// equals version, consuming that version in the same statement.
func (r *GormAccountRepository) UpdatePasswordIfVersion(ctx context.Context, userID string, version int64, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&domain.Account{}).
		Where("user_id = ? AND password_version = ?", userID, version).
		Updates(map[string]any{
			"password":         passwordHash,
			"password_version": gorm.Expr("password_version + 1"),
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "account", "update_password_if_version", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "account", "update_password_if_version", "stale")
		return ErrStalePasswordVersion
	}
	observability.RecordRepositoryOperation(ctx, "account", "update_password_if_version", "success")
	return nil
}

func (r *GormAccountRepository) Delete(ctx context.Context, userID string, allowedRoles []domain.Role) error {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if len(allowedRoles) > 0 {
		q = q.Where("role IN ?", allowedRoles)
	}
	res := q.Delete(&domain.Account{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "account", "delete", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "account", "delete", "not_found")
		return ErrAccountNotFound
	}
	observability.RecordRepositoryOperation(ctx, "account", "delete", "success")
	return nil
}

func (r *GormAccountRepository) List(ctx context.Context, query AccountListQuery) (PageResult[domain.Account], error) {
	base := r.db.WithContext(ctx).Model(&domain.Account{})
	if len(query.Roles) > 0 {
		base = base.Where("role IN ?", query.Roles)
	}
	var result PageResult[domain.Account]
	if err := base.Session(&gorm.Session{}).Count(&result.Total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "account", "list", "error")
		return PageResult[domain.Account]{}, err
	}

	order := "username ASC"
	if query.Descending {
		order = "username DESC"
	}
	listQuery := base.Order(order).Order("user_id ASC")
	if query.Paged {
		req := normalizePageRequest(query.PageRequest)
		result.Page, result.PageSize = req.Page, req.PageSize
		listQuery = listQuery.Offset((req.Page - 1) * req.PageSize).Limit(req.PageSize)
		result.TotalPages = calcTotalPages(result.Total, req.PageSize)
	} else {
		result = singlePage[domain.Account](result.Total)
	}
	if err := listQuery.Find(&result.Items).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "account", "list", "error")
		return PageResult[domain.Account]{}, err
	}
	observability.RecordRepositoryOperation(ctx, "account", "list", "success")
	return result, nil
}

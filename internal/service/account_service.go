package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gamexhub/gamex-panel/internal/domain"
	"github.com/gamexhub/gamex-panel/internal/observability"
	"github.com/gamexhub/gamex-panel/internal/repository"
	"github.com/gamexhub/gamex-panel/internal/security"
)

// ManagementScope is what one panel role may see and change in other accounts.
type ManagementScope struct {
	Actor           string
	Listed          []domain.Role
	Readable        []domain.Role
	Mutable         []domain.Role
	AllowRoleChange bool
}

var (
	AdminScope = ManagementScope{
		Actor:    "admin",
		Listed:   []domain.Role{domain.RoleUser, domain.RoleAdmin},
		Readable: []domain.Role{domain.RoleUser, domain.RoleAdmin},
		Mutable:  []domain.Role{domain.RoleUser},
	}
	SuperadminScope = ManagementScope{
		Actor:           "superadmin",
		Listed:          []domain.Role{domain.RoleUser, domain.RoleAdmin},
		Readable:        []domain.Role{domain.RoleUser, domain.RoleAdmin, domain.RoleSuperadmin},
		Mutable:         []domain.Role{domain.RoleUser, domain.RoleAdmin},
		AllowRoleChange: true,
	}
)

type ProfileUpdate struct {
	Email    *string
	Username *string
}

type AccountUpdate struct {
	Email    *string
	Username *string
	Password *string
	Role     *string
}

type AccountLookup struct {
	UserID   string
	Username string
}

type ListOptions struct {
	Descending bool
	Page       int
	PageSize   int
}

type AccountService struct {
	accounts repository.AccountRepository
	hasher   *security.PasswordHasher
}

func NewAccountService(accounts repository.AccountRepository, hasher *security.PasswordHasher) *AccountService {
	return &AccountService{accounts: accounts, hasher: hasher}
}

func (s *AccountService) Profile(ctx context.Context, userID string) (*domain.Account, error) {
	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return nil, mapAccountErr(err)
	}
	return account, nil
}

// UpdateProfile changes the caller's own email and/or username.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) error {
	patch := repository.AccountPatch{Email: trimmed(in.Email), Username: trimmed(in.Username)}
	if patch.Empty() {
		return ErrNoFieldsToUpdate
	}
	if err := s.ensureUnique(ctx, patch, userID); err != nil {
		return err
	}
	return mapAccountErr(s.accounts.Update(ctx, userID, nil, patch))
}

// ChangePassword verifies oldPassword before storing newPassword.
func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	account, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return mapAccountErr(err)
	}
	if err := s.hasher.Verify(account.PasswordHash, strings.TrimSpace(oldPassword)); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return mapAccountErr(s.accounts.Update(ctx, userID, nil, repository.AccountPatch{PasswordHash: &hash}))
}

func (s *AccountService) List(ctx context.Context, scope ManagementScope, opts ListOptions) (repository.PageResult[domain.Account], error) {
	query := repository.AccountListQuery{
		Roles:       scope.Listed,
		Descending:  opts.Descending,
		Paged:       opts.Page > 0 || opts.PageSize > 0,
		PageRequest: repository.PageRequest{Page: opts.Page, PageSize: opts.PageSize},
	}
	res, err := s.accounts.List(ctx, query)
	if err != nil {
		return repository.PageResult[domain.Account]{}, fmt.Errorf("list accounts: %w", err)
	}
	return res, nil
}

// Find looks an account up by id, falling back to username. Accounts outside
// scope.Readable yield ErrForbiddenTarget.
func (s *AccountService) Find(ctx context.Context, scope ManagementScope, lookup AccountLookup) (*domain.Account, error) {
	var (
		account *domain.Account
		err     error
	)
	switch {
	case strings.TrimSpace(lookup.UserID) != "":
		account, err = s.accounts.FindByID(ctx, strings.TrimSpace(lookup.UserID))
	case strings.TrimSpace(lookup.Username) != "":
		account, err = s.accounts.FindByUsername(ctx, strings.TrimSpace(lookup.Username))
	default:
		return nil, ErrLookupKeyRequired
	}
	if err != nil {
		return nil, mapAccountErr(err)
	}
	if !slices.Contains(scope.Readable, account.Role) {
		return nil, ErrForbiddenTarget
	}
	return account, nil
}

// Update applies a partial update to another account within scope.
func (s *AccountService) Update(ctx context.Context, scope ManagementScope, userID string, in AccountUpdate) error {
	patch := repository.AccountPatch{Email: trimmed(in.Email), Username: trimmed(in.Username)}
	// A blank newRole means no role change.
	if newRole := trimmed(in.Role); newRole != nil && scope.AllowRoleChange {
		role := domain.Role(*newRole)
		if role != domain.RoleUser && role != domain.RoleAdmin {
			return ErrInvalidRole
		}
		patch.Role = &role
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return err
		}
		patch.PasswordHash = &hash
	}
	if patch.Empty() {
		return ErrNoFieldsToUpdate
	}

	target, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		return mapAccountErr(err)
	}
	if !slices.Contains(scope.Mutable, target.Role) {
		return ErrForbiddenTarget
	}
	if err := s.ensureUnique(ctx, patch, userID); err != nil {
		return err
	}
	if err := s.accounts.Update(ctx, userID, scope.Mutable, patch); err != nil {
		return mapAccountErr(err)
	}
	observability.RecordAccountMutation(ctx, scope.Actor, "update")
	return nil
}

func (s *AccountService) Delete(ctx context.Context, scope ManagementScope, userID string) error {
	if err := s.accounts.Delete(ctx, userID, scope.Mutable); err != nil {
		return mapAccountErr(err)
	}
	observability.RecordAccountMutation(ctx, scope.Actor, "delete")
	return nil
}

func (s *AccountService) ensureUnique(ctx context.Context, patch repository.AccountPatch, userID string) error {
	var email, username string
	if patch.Email != nil {
		email = *patch.Email
	}
	if patch.Username != nil {
		username = *patch.Username
	}
	taken, err := s.accounts.ExistsOther(ctx, email, username, userID)
	if err != nil {
		return fmt.Errorf("check duplicates: %w", err)
	}
	if taken {
		return ErrDuplicateAccount
	}
	return nil
}

// trimmed drops nil and blank values so they are not written.
func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func mapAccountErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, repository.ErrDuplicateAccount):
		return ErrDuplicateAccount
	}
	return err
}

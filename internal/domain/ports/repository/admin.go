package repository

import (
	"context"

	"activation-code-admin/internal/domain/model"
)

// AdminAccountRepository is the port for console operator accounts.
type AdminAccountRepository interface {
	// Save creates or updates an account.
	Save(ctx context.Context, tx Tx, account *model.AdminAccount) error
	// FindByUsername returns domain.ErrNotFound when the account is absent.
	FindByUsername(ctx context.Context, tx Tx, username string) (*model.AdminAccount, error)
}

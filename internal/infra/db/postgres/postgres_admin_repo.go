package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"activation-code-admin/internal/domain"
	"activation-code-admin/internal/domain/model"
	"activation-code-admin/internal/domain/ports/repository"
)

var _ repository.AdminAccountRepository = (*adminAccountRepo)(nil)

type adminAccountRepo struct {
	pool *pgxpool.Pool
}

func NewAdminAccountRepo(pool *pgxpool.Pool) repository.AdminAccountRepository {
	return &adminAccountRepo{pool: pool}
}

func (r *adminAccountRepo) Save(ctx context.Context, tx repository.Tx, account *model.AdminAccount) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	const q = `
INSERT INTO admin_accounts (id, username, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (username) DO UPDATE SET
  password_hash = EXCLUDED.password_hash,
  updated_at    = EXCLUDED.updated_at;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		account.ID, account.Username, account.PasswordHash, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save admin account: %w", err)
	}
	return nil
}

func (r *adminAccountRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.AdminAccount, error) {
	const q = `
SELECT id, username, password_hash, created_at, updated_at
  FROM admin_accounts WHERE username = $1;`
	var a model.AdminAccount
	err := pickRow(ctx, r.pool, tx, q, username).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find admin account: %w", err)
	}
	return &a, nil
}

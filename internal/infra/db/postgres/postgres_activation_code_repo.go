package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"activation-code-admin/internal/domain"
	"activation-code-admin/internal/domain/model"
	"activation-code-admin/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.ActivationCodeRepository = (*activationCodeRepo)(nil)

type activationCodeRepo struct {
	pool *pgxpool.Pool
}

func NewActivationCodeRepo(pool *pgxpool.Pool) repository.ActivationCodeRepository {
	return &activationCodeRepo{pool: pool}
}

func (r *activationCodeRepo) InsertBatch(ctx context.Context, tx repository.Tx, codes []*model.ActivationCode) error {
	const q = `
INSERT INTO activation_codes (id, code, created_at, activated_at, expires_at, user_id)
VALUES ($1, $2, $3, $4, $5, $6);
`
	batch := &pgx.Batch{}
	for _, c := range codes {
		batch.Queue(q, c.ID, c.Code, c.CreatedAt, c.ActivatedAt, c.ExpiresAt, c.UserID)
	}

	var br pgx.BatchResults
	switch v := tx.(type) {
	case pgx.Tx:
		br = v.SendBatch(ctx, batch)
	default:
		br = r.pool.SendBatch(ctx, batch)
	}
	defer br.Close()

	for range codes {
		if _, err := br.Exec(); err != nil {
			if pgErrCode(err) == codeUniqueViolation {
				return domain.ErrAlreadyExists
			}
			return fmt.Errorf("insert code: %w", err)
		}
	}
	return nil
}

// List pages through codes in stable creation order. The skip token is an
// opaque continuation value to callers; internally it is the number of rows
// already served under the current filter.
func (r *activationCodeRepo) List(ctx context.Context, tx repository.Tx, filter repository.ListFilter, skipToken, pageSize int) (*model.CodePage, error) {
	where := ""
	if filter.IsUsed != nil {
		if *filter.IsUsed {
			where = "WHERE activated_at IS NOT NULL"
		} else {
			where = "WHERE activated_at IS NULL"
		}
	}

	var total int
	countQ := fmt.Sprintf(`SELECT COUNT(*) FROM activation_codes %s;`, where)
	if err := pickRow(ctx, r.pool, tx, countQ).Scan(&total); err != nil {
		return nil, fmt.Errorf("count codes: %w", err)
	}

	listQ := fmt.Sprintf(`
SELECT id, code, created_at, activated_at, expires_at, user_id
  FROM activation_codes %s
 ORDER BY id
OFFSET $1 LIMIT $2;`, where)
	rows, err := queryRows(ctx, r.pool, tx, listQ, skipToken, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}
	defer rows.Close()

	var codes []*model.ActivationCode
	for rows.Next() {
		var c model.ActivationCode
		if err := rows.Scan(&c.ID, &c.Code, &c.CreatedAt, &c.ActivatedAt, &c.ExpiresAt, &c.UserID); err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		codes = append(codes, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := &model.CodePage{
		Codes:      codes,
		TotalCount: total,
		PageSize:   pageSize,
		HasMore:    skipToken+len(codes) < total,
	}
	if page.HasMore {
		next := skipToken + len(codes)
		page.NextSkipToken = &next
	}
	return page, nil
}

func (r *activationCodeRepo) DeleteByCode(ctx context.Context, tx repository.Tx, code string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM activation_codes WHERE code = $1;`, code)
	if err != nil {
		return fmt.Errorf("delete code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCodeNotFound
	}
	return nil
}

func (r *activationCodeRepo) DeleteExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	tag, err := execSQL(ctx, r.pool, tx, `
DELETE FROM activation_codes
 WHERE activated_at IS NOT NULL
   AND expires_at IS NOT NULL
   AND expires_at < $1;`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *activationCodeRepo) FindMatching(ctx context.Context, tx repository.Tx, pattern string) ([]string, error) {
	rows, err := queryRows(ctx, r.pool, tx, `
SELECT code FROM activation_codes WHERE code ~ $1 ORDER BY id;`, pattern)
	if err != nil {
		return nil, mapPatternErr(err)
	}
	defer rows.Close()

	var matched []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan matched code: %w", err)
		}
		matched = append(matched, code)
	}
	return matched, rows.Err()
}

func (r *activationCodeRepo) DeleteMatching(ctx context.Context, tx repository.Tx, pattern string) (int, error) {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM activation_codes WHERE code ~ $1;`, pattern)
	if err != nil {
		return 0, mapPatternErr(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *activationCodeRepo) Stats(ctx context.Context, tx repository.Tx, now time.Time) (*model.CodeStats, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE activated_at IS NULL),
       COUNT(*) FILTER (WHERE activated_at IS NOT NULL),
       COUNT(*) FILTER (WHERE activated_at IS NOT NULL
                          AND (expires_at IS NULL OR expires_at >= $1))
  FROM activation_codes;`
	var s model.CodeStats
	err := pickRow(ctx, r.pool, tx, q, now).Scan(&s.TotalCodes, &s.UnusedCodes, &s.UsedCodes, &s.ActiveCodes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.CodeStats{}, nil
		}
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &s, nil
}

// mapPatternErr turns an invalid regular expression raised by the server
// into a domain validation error so the HTTP layer can answer 400.
func mapPatternErr(err error) error {
	if pgErrCode(err) == codeInvalidRegexp {
		return fmt.Errorf("%w: invalid pattern", domain.ErrInvalidArgument)
	}
	return err
}

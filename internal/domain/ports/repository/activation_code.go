package repository

import (
	"context"
	"time"

	"activation-code-admin/internal/domain/model"
)

// ListFilter narrows a paginated listing. A nil IsUsed returns every code.
type ListFilter struct {
	IsUsed *bool
}

// ActivationCodeRepository is the port for managing activation codes.
//
// Listing is skip-token paginated: skipToken is an opaque continuation
// value issued by the previous page (0 for the first page). Callers must
// not interpret it.
type ActivationCodeRepository interface {
	// InsertBatch stores freshly generated codes.
	InsertBatch(ctx context.Context, tx Tx, codes []*model.ActivationCode) error
	// List returns one page in stable creation order.
	List(ctx context.Context, tx Tx, filter ListFilter, skipToken, pageSize int) (*model.CodePage, error)
	// DeleteByCode removes a single code by its token string.
	DeleteByCode(ctx context.Context, tx Tx, code string) error
	// DeleteExpired removes every activated code whose expiry has passed.
	DeleteExpired(ctx context.Context, tx Tx, now time.Time) (int, error)
	// FindMatching returns the code strings matching a POSIX regular
	// expression evaluated against the code column, in creation order.
	FindMatching(ctx context.Context, tx Tx, pattern string) ([]string, error)
	// DeleteMatching removes every code matching the pattern and reports
	// how many rows were deleted.
	DeleteMatching(ctx context.Context, tx Tx, pattern string) (int, error)
	// Stats aggregates counters over the full code set.
	Stats(ctx context.Context, tx Tx, now time.Time) (*model.CodeStats, error)
}

package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"activation-code-admin/internal/domain"
	"activation-code-admin/internal/domain/model"
	"activation-code-admin/internal/domain/ports/repository"
	"activation-code-admin/internal/infra/logging"
	"activation-code-admin/internal/infra/metrics"
)

const (
	// MaxGenerateCount bounds one bulk generation request.
	MaxGenerateCount = 20000
	// DefaultPrefix is used when a generation request carries none.
	DefaultPrefix = "CODE"
	// Generation responses include the full code list only up to this size.
	maxInlineCodes = 1000
	// MaxPreviewCodes caps the matched-code list in batch-delete responses.
	// The true matched count is always reported; the cap is server-side.
	MaxPreviewCodes = 100
)

// GenerateResult reports the outcome of a bulk generation.
type GenerateResult struct {
	Count  int
	Prefix string
	Codes  []string
	Note   string
}

// BatchDeleteResult reports a dry-run preview or a committed batch delete.
type BatchDeleteResult struct {
	MatchedCount int
	DeletedCount int
	MatchedCodes []string
	WasDryRun    bool
}

// Compile-time check
var _ CodeUseCase = (*codeUC)(nil)

// CodeUseCase exposes the activation-code operations served by the admin API.
type CodeUseCase interface {
	List(ctx context.Context, isUsed *bool, skipToken, pageSize int) (*model.CodePage, error)
	Generate(ctx context.Context, count int, prefix string) (*GenerateResult, error)
	DeleteOne(ctx context.Context, code string) error
	DeleteExpired(ctx context.Context) (int, error)
	BatchDelete(ctx context.Context, pattern string, dryRun bool) (*BatchDeleteResult, error)
	Stats(ctx context.Context) (*model.CodeStats, error)
}

// StatsCache is the port for the short-lived stats snapshot. Any Get error
// is treated as a miss; Store/Invalidate failures are logged and ignored
// since the cache is advisory.
type StatsCache interface {
	Get(ctx context.Context) (*model.CodeStats, error)
	Store(ctx context.Context, stats *model.CodeStats) error
	Invalidate(ctx context.Context) error
}

type codeUC struct {
	codes repository.ActivationCodeRepository
	tm    repository.TransactionManager
	cache StatsCache
	log   *zerolog.Logger
}

func NewCodeUseCase(codes repository.ActivationCodeRepository, tm repository.TransactionManager, cache StatsCache, logger *zerolog.Logger) *codeUC {
	return &codeUC{
		codes: codes,
		tm:    tm,
		cache: cache,
		log:   logger,
	}
}

func (u *codeUC) List(ctx context.Context, isUsed *bool, skipToken, pageSize int) (*model.CodePage, error) {
	defer logging.TraceDuration(u.log, "CodeUC.List")()

	if pageSize <= 0 {
		pageSize = 100
	}
	if pageSize > 1000 {
		pageSize = 1000
	}
	if skipToken < 0 {
		return nil, fmt.Errorf("%w: negative skip token", domain.ErrInvalidArgument)
	}
	return u.codes.List(ctx, repository.NoTX, repository.ListFilter{IsUsed: isUsed}, skipToken, pageSize)
}

func (u *codeUC) Generate(ctx context.Context, count int, prefix string) (*GenerateResult, error) {
	defer logging.TraceDuration(u.log, "CodeUC.Generate")()

	if count < 1 || count > MaxGenerateCount {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", domain.ErrInvalidArgument, MaxGenerateCount)
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}

	now := time.Now()
	codes := make([]*model.ActivationCode, 0, count)
	strs := make([]string, 0, count)
	for i := 0; i < count; i++ {
		token, err := generateCodeString(prefix)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		codes = append(codes, &model.ActivationCode{
			ID:        ulid.Make().String(),
			Code:      token,
			CreatedAt: now,
		})
		strs = append(strs, token)
	}

	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return u.codes.InsertBatch(ctx, tx, codes)
	})
	if err != nil {
		return nil, err
	}

	u.invalidateStats(ctx)
	metrics.AddGenerated(count)

	res := &GenerateResult{Count: count, Prefix: prefix}
	if count <= maxInlineCodes {
		res.Codes = strs
	} else {
		res.Note = fmt.Sprintf("code list omitted for batches above %d, use export", maxInlineCodes)
	}
	return res, nil
}

func (u *codeUC) DeleteOne(ctx context.Context, code string) error {
	defer logging.TraceDuration(u.log, "CodeUC.DeleteOne")()

	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: empty code", domain.ErrInvalidArgument)
	}
	if err := u.codes.DeleteByCode(ctx, repository.NoTX, code); err != nil {
		return err
	}
	u.invalidateStats(ctx)
	metrics.AddDeleted("single", 1)
	return nil
}

func (u *codeUC) DeleteExpired(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "CodeUC.DeleteExpired")()

	deleted, err := u.codes.DeleteExpired(ctx, repository.NoTX, time.Now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		u.invalidateStats(ctx)
		metrics.AddDeleted("expired", deleted)
	}
	return deleted, nil
}

// BatchDelete evaluates the pattern server-side against the code column.
// A dry run only reports what would be deleted. A commit re-evaluates the
// match inside one transaction, so the deleted count reflects the state at
// commit time, not at preview time.
func (u *codeUC) BatchDelete(ctx context.Context, pattern string, dryRun bool) (*BatchDeleteResult, error) {
	defer logging.TraceDuration(u.log, "CodeUC.BatchDelete")()

	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("%w: empty pattern", domain.ErrInvalidArgument)
	}

	res := &BatchDeleteResult{WasDryRun: dryRun}
	if dryRun {
		matched, err := u.codes.FindMatching(ctx, repository.NoTX, pattern)
		if err != nil {
			return nil, err
		}
		res.MatchedCount = len(matched)
		res.MatchedCodes = capCodes(matched)
		return res, nil
	}

	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		matched, err := u.codes.FindMatching(ctx, tx, pattern)
		if err != nil {
			return err
		}
		res.MatchedCount = len(matched)
		res.MatchedCodes = capCodes(matched)

		deleted, err := u.codes.DeleteMatching(ctx, tx, pattern)
		if err != nil {
			return err
		}
		res.DeletedCount = deleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.DeletedCount > 0 {
		u.invalidateStats(ctx)
		metrics.AddDeleted("batch", res.DeletedCount)
	}
	u.log.Info().Str("pattern", pattern).Int("deleted", res.DeletedCount).Msg("batch delete committed")
	return res, nil
}

func (u *codeUC) Stats(ctx context.Context) (*model.CodeStats, error) {
	defer logging.TraceDuration(u.log, "CodeUC.Stats")()

	if u.cache != nil {
		if stats, err := u.cache.Get(ctx); err == nil && stats != nil {
			return stats, nil
		}
	}

	stats, err := u.codes.Stats(ctx, repository.NoTX, time.Now())
	if err != nil {
		return nil, err
	}
	if u.cache != nil {
		if err := u.cache.Store(ctx, stats); err != nil {
			u.log.Debug().Err(err).Msg("stats cache store failed")
		}
	}
	return stats, nil
}

func (u *codeUC) invalidateStats(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Invalidate(ctx); err != nil {
		u.log.Debug().Err(err).Msg("stats cache invalidate failed")
	}
}

func capCodes(matched []string) []string {
	if len(matched) > MaxPreviewCodes {
		return matched[:MaxPreviewCodes]
	}
	return matched
}

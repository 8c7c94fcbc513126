//go:build !integration

package usecase_test

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"activation-code-admin/internal/domain"
	"activation-code-admin/internal/domain/model"
	"activation-code-admin/internal/domain/ports/repository"
	"activation-code-admin/internal/usecase"
)

func newTestLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// ---------------- in-memory infra mocks (repos/tx) ----------------

type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, struct{}{})
}

type memCodeRepo struct {
	mu    sync.Mutex
	codes []*model.ActivationCode

	// optional error hooks to exercise failure paths
	errInsert error
	errList   error
	errDelete error
	errMatch  error
	errStats  error
}

var _ repository.ActivationCodeRepository = (*memCodeRepo)(nil)

func newMemCodeRepo() *memCodeRepo { return &memCodeRepo{} }

func (m *memCodeRepo) InsertBatch(ctx context.Context, tx repository.Tx, codes []*model.ActivationCode) error {
	if m.errInsert != nil {
		return m.errInsert
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range codes {
		cp := *c
		m.codes = append(m.codes, &cp)
	}
	m.sortLocked()
	return nil
}

func (m *memCodeRepo) List(ctx context.Context, tx repository.Tx, filter repository.ListFilter, skipToken, pageSize int) (*model.CodePage, error) {
	if m.errList != nil {
		return nil, m.errList
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []*model.ActivationCode
	for _, c := range m.codes {
		if filter.IsUsed != nil && c.IsUsed() != *filter.IsUsed {
			continue
		}
		cp := *c
		all = append(all, &cp)
	}

	end := skipToken + pageSize
	if end > len(all) {
		end = len(all)
	}
	var pageCodes []*model.ActivationCode
	if skipToken < len(all) {
		pageCodes = all[skipToken:end]
	}

	page := &model.CodePage{
		Codes:      pageCodes,
		TotalCount: len(all),
		PageSize:   pageSize,
		HasMore:    end < len(all),
	}
	if page.HasMore {
		next := end
		page.NextSkipToken = &next
	}
	return page, nil
}

func (m *memCodeRepo) DeleteByCode(ctx context.Context, tx repository.Tx, code string) error {
	if m.errDelete != nil {
		return m.errDelete
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.codes {
		if c.Code == code {
			m.codes = append(m.codes[:i], m.codes[i+1:]...)
			return nil
		}
	}
	return domain.ErrCodeNotFound
}

func (m *memCodeRepo) DeleteExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	if m.errDelete != nil {
		return 0, m.errDelete
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*model.ActivationCode
	deleted := 0
	for _, c := range m.codes {
		if c.Status(now) == model.StatusExpired {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	m.codes = kept
	return deleted, nil
}

func (m *memCodeRepo) FindMatching(ctx context.Context, tx repository.Tx, pattern string) ([]string, error) {
	if m.errMatch != nil {
		return nil, m.errMatch
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, domain.ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []string
	for _, c := range m.codes {
		if re.MatchString(c.Code) {
			matched = append(matched, c.Code)
		}
	}
	return matched, nil
}

func (m *memCodeRepo) DeleteMatching(ctx context.Context, tx repository.Tx, pattern string) (int, error) {
	if m.errDelete != nil {
		return 0, m.errDelete
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, domain.ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*model.ActivationCode
	deleted := 0
	for _, c := range m.codes {
		if re.MatchString(c.Code) {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	m.codes = kept
	return deleted, nil
}

func (m *memCodeRepo) Stats(ctx context.Context, tx repository.Tx, now time.Time) (*model.CodeStats, error) {
	if m.errStats != nil {
		return nil, m.errStats
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &model.CodeStats{TotalCodes: len(m.codes)}
	for _, c := range m.codes {
		switch c.Status(now) {
		case model.StatusUnused:
			s.UnusedCodes++
		case model.StatusActive:
			s.UsedCodes++
			s.ActiveCodes++
		case model.StatusExpired:
			s.UsedCodes++
		}
	}
	return s, nil
}

func (m *memCodeRepo) sortLocked() {
	sort.Slice(m.codes, func(i, j int) bool { return m.codes[i].ID < m.codes[j].ID })
}

func (m *memCodeRepo) seed(codes ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, code := range codes {
		m.codes = append(m.codes, &model.ActivationCode{
			ID:        code,
			Code:      code,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Millisecond),
		})
	}
	m.sortLocked()
}

type memAdminRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.AdminAccount
	errFind  error
}

var _ repository.AdminAccountRepository = (*memAdminRepo)(nil)

func newMemAdminRepo() *memAdminRepo {
	return &memAdminRepo{accounts: map[string]*model.AdminAccount{}}
}

func (m *memAdminRepo) Save(ctx context.Context, tx repository.Tx, account *model.AdminAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.Username] = &cp
	return nil
}

func (m *memAdminRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.AdminAccount, error) {
	if m.errFind != nil {
		return nil, m.errFind
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

type memStatsCache struct {
	mu          sync.Mutex
	stats       *model.CodeStats
	stores      int
	invalidates int
}

var _ usecase.StatsCache = (*memStatsCache)(nil)

func (c *memStatsCache) Get(ctx context.Context) (*model.CodeStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stats == nil {
		return nil, domain.ErrNotFound
	}
	cp := *c.stats
	return &cp, nil
}

func (c *memStatsCache) Store(ctx context.Context, stats *model.CodeStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *stats
	c.stats = &cp
	c.stores++
	return nil
}

func (c *memStatsCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = nil
	c.invalidates++
	return nil
}

type memLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMemLimiter() *memLimiter { return &memLimiter{counts: map[string]int{}} }

func (l *memLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

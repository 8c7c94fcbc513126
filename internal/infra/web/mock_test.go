//go:build !integration

package web

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"activation-code-admin/internal/domain"
	"activation-code-admin/internal/domain/model"
	"activation-code-admin/internal/usecase"
)

func newTestLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

// --- Mock use cases ---

type mockCodeUC struct {
	codes []*model.ActivationCode
	stats *model.CodeStats

	listErr   error
	genErr    error
	deleteErr error
	batchErr  error
	statsErr  error

	lastPattern string
	lastDryRun  bool
	deleted     []string
}

var _ usecase.CodeUseCase = (*mockCodeUC)(nil)

func (m *mockCodeUC) List(ctx context.Context, isUsed *bool, skipToken, pageSize int) (*model.CodePage, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if pageSize <= 0 {
		pageSize = 100
	}
	var filtered []*model.ActivationCode
	for _, c := range m.codes {
		if isUsed != nil && c.IsUsed() != *isUsed {
			continue
		}
		filtered = append(filtered, c)
	}
	end := skipToken + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	var pageCodes []*model.ActivationCode
	if skipToken < len(filtered) {
		pageCodes = filtered[skipToken:end]
	}
	page := &model.CodePage{
		Codes:      pageCodes,
		TotalCount: len(filtered),
		PageSize:   pageSize,
		HasMore:    end < len(filtered),
	}
	if page.HasMore {
		next := end
		page.NextSkipToken = &next
	}
	return page, nil
}

func (m *mockCodeUC) Generate(ctx context.Context, count int, prefix string) (*usecase.GenerateResult, error) {
	if m.genErr != nil {
		return nil, m.genErr
	}
	if count < 1 || count > usecase.MaxGenerateCount {
		return nil, domain.ErrInvalidArgument
	}
	if prefix == "" {
		prefix = usecase.DefaultPrefix
	}
	res := &usecase.GenerateResult{Count: count, Prefix: prefix}
	for i := 0; i < count; i++ {
		res.Codes = append(res.Codes, prefix+"-MOCK")
	}
	return res, nil
}

func (m *mockCodeUC) DeleteOne(ctx context.Context, code string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, c := range m.codes {
		if c.Code == code {
			m.deleted = append(m.deleted, code)
			return nil
		}
	}
	return domain.ErrCodeNotFound
}

func (m *mockCodeUC) DeleteExpired(ctx context.Context) (int, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return 0, nil
}

func (m *mockCodeUC) BatchDelete(ctx context.Context, pattern string, dryRun bool) (*usecase.BatchDeleteResult, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	if strings.TrimSpace(pattern) == "" {
		return nil, domain.ErrInvalidArgument
	}
	m.lastPattern = pattern
	m.lastDryRun = dryRun

	// Substring-of-pattern matching is enough for handler tests.
	needle := strings.Trim(pattern, ".*")
	var matched []string
	for _, c := range m.codes {
		if strings.Contains(c.Code, needle) {
			matched = append(matched, c.Code)
		}
	}
	res := &usecase.BatchDeleteResult{
		MatchedCount: len(matched),
		MatchedCodes: matched,
		WasDryRun:    dryRun,
	}
	if !dryRun {
		res.DeletedCount = len(matched)
	}
	return res, nil
}

func (m *mockCodeUC) Stats(ctx context.Context) (*model.CodeStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	if m.stats != nil {
		return m.stats, nil
	}
	return &model.CodeStats{TotalCodes: len(m.codes)}, nil
}

type mockAuthUC struct {
	username string
	password string

	changeErr error
	lastOld   string
	lastNew   string
}

var _ usecase.AuthUseCase = (*mockAuthUC)(nil)

func (m *mockAuthUC) Login(ctx context.Context, username, password, remoteAddr string) (*model.AdminAccount, error) {
	if username != m.username || password != m.password {
		return nil, domain.ErrInvalidCredentials
	}
	return &model.AdminAccount{ID: "admin-1", Username: username}, nil
}

func (m *mockAuthUC) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if m.changeErr != nil {
		return m.changeErr
	}
	m.lastOld, m.lastNew = oldPassword, newPassword
	return nil
}

func (m *mockAuthUC) EnsureBootstrapAccount(ctx context.Context, username, password string) error {
	return nil
}

func seedCodes(n int, prefix string) []*model.ActivationCode {
	now := time.Now()
	var codes []*model.ActivationCode
	for i := 0; i < n; i++ {
		codes = append(codes, &model.ActivationCode{
			ID:        prefix + string(rune('A'+i%26)) + string(rune('0'+i%10)),
			Code:      prefix + "-" + string(rune('A'+i%26)) + string(rune('0'+i%10)),
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		})
	}
	return codes
}

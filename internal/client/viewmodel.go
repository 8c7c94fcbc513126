package client

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/pool"

	"activation-code-admin/internal/domain/model"
)

// CodeListView is the in-memory working set behind the listing screen: the
// codes loaded so far, whether more pages exist, and the last stats
// snapshot. A failed fetch never wipes what is already loaded.
type CodeListView struct {
	client *Client
	pager  *Pager

	codes      []*model.ActivationCode
	totalCount int
	nextCursor *int
	hasMore    bool
	stats      *model.CodeStats
	filter     string
}

func NewCodeListView(c *Client, pageSize int, isUsed *bool) *CodeListView {
	return &CodeListView{
		client: c,
		pager:  NewPager(c, pageSize, isUsed),
	}
}

// Reload fetches page one and the stats in parallel and replaces the
// working set wholesale. Called after every mutation instead of patching
// the mutation's effect locally.
func (v *CodeListView) Reload(ctx context.Context) error {
	var page *CodePage
	var stats *model.CodeStats

	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		page, err = v.pager.LoadPage(ctx, nil)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		stats, err = v.client.Stats(ctx)
		return err
	})
	if err := p.Wait(); err != nil {
		return err
	}

	v.codes = page.Codes
	v.totalCount = page.TotalCount
	v.nextCursor = page.NextSkipToken
	v.hasMore = page.HasMore
	v.stats = stats
	return nil
}

// LoadMore appends the next page to the working set. A failure leaves the
// set as it was.
func (v *CodeListView) LoadMore(ctx context.Context) error {
	if !v.hasMore {
		return nil
	}
	page, err := v.pager.LoadPage(ctx, v.nextCursor)
	if err != nil {
		return err
	}
	v.codes = append(v.codes, page.Codes...)
	v.totalCount = page.TotalCount
	v.nextCursor = page.NextSkipToken
	v.hasMore = page.HasMore
	return nil
}

// SetFilter sets the local display filter. Filtering is purely client-side
// over what is already loaded; it never triggers a fetch and never
// disables load-more.
func (v *CodeListView) SetFilter(query string) { v.filter = query }

// Visible returns the loaded codes that pass the current filter, in load
// order.
func (v *CodeListView) Visible() []*model.ActivationCode {
	if v.filter == "" {
		return v.codes
	}
	now := time.Now()
	out := make([]*model.ActivationCode, 0, len(v.codes))
	for _, c := range v.codes {
		if c.Matches(v.filter, now) {
			out = append(out, c)
		}
	}
	return out
}

func (v *CodeListView) Loaded() []*model.ActivationCode { return v.codes }
func (v *CodeListView) TotalCount() int                 { return v.totalCount }
func (v *CodeListView) HasMore() bool                   { return v.hasMore }
func (v *CodeListView) Stats() *model.CodeStats         { return v.stats }

package client

import "context"

const (
	// InteractivePageSize favors latency for on-screen listing.
	InteractivePageSize = 100
	// ExportPageSize favors fewer round-trips for bulk fetches.
	ExportPageSize = 1000
)

// Pager drives incremental fetching over the list endpoint. The skip token
// is carried verbatim between calls; the pager never inspects it.
type Pager struct {
	client   *Client
	pageSize int
	isUsed   *bool
}

func NewPager(c *Client, pageSize int, isUsed *bool) *Pager {
	if pageSize <= 0 {
		pageSize = InteractivePageSize
	}
	return &Pager{client: c, pageSize: pageSize, isUsed: isUsed}
}

// LoadPage fetches one page. A nil cursor means page one.
func (p *Pager) LoadPage(ctx context.Context, cursor *int) (*CodePage, error) {
	return p.client.ListCodes(ctx, ListOptions{
		IsUsed:    p.isUsed,
		SkipToken: cursor,
		PageSize:  p.pageSize,
	})
}

// FetchAll follows skip tokens until the backend reports no more pages and
// returns every code string in server order. Any page failure aborts the
// loop and discards the pages already fetched; the caller gets either the
// complete sequence or nothing.
func (p *Pager) FetchAll(ctx context.Context) ([]string, error) {
	var codes []string
	var cursor *int
	for {
		page, err := p.LoadPage(ctx, cursor)
		if err != nil {
			return nil, err
		}
		for _, c := range page.Codes {
			codes = append(codes, c.Code)
		}
		if !page.HasMore || page.NextSkipToken == nil {
			return codes, nil
		}
		cursor = page.NextSkipToken
	}
}

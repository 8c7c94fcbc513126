package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportFileName builds the artifact name for an export taken at ts. The
// timestamp doubles as the filename suffix, so the characters a filesystem
// may reject are replaced.
func ExportFileName(ts time.Time) string {
	stamp := ts.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("activation-codes-%s.txt", stamp)
}

// ExportCodes fetches every code and writes them one per line into dir.
// The fetch is all-or-nothing: a mid-pagination failure produces no file.
// Returns the written path and the number of codes.
func ExportCodes(ctx context.Context, c *Client, dir string) (string, int, error) {
	pager := NewPager(c, ExportPageSize, nil)
	codes, err := pager.FetchAll(ctx)
	if err != nil {
		return "", 0, err
	}

	path := filepath.Join(dir, ExportFileName(time.Now()))
	var b strings.Builder
	for _, code := range codes {
		b.WriteString(code)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", 0, fmt.Errorf("write export: %w", err)
	}
	return path, len(codes), nil
}

// Package blacklist loads the published tables of exercise cutoff dates and
// Aim Lab level ids. Runs played on or before an exercise's cutoff date
// predate its current version and are ignored.
package blacklist

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/aimsync/internal/domain/model"
	"github.com/okian/aimsync/pkg/logger"
)

// DateLayout is the day-first format used by the published tables.
const DateLayout = "02.01.2006"

const (
	// DefaultVersionBlacklistURL publishes "name, date" rows.
	DefaultVersionBlacklistURL = "https://docs.google.com/spreadsheets/d/1uvXfx-wDsyPg5gM79NDTszFk-t6SL42seL-8dwDTJxw/gviz/tq?tqx=out:csv&sheet=Update_Dates"
	// DefaultLevelIDsURL publishes "name, level id, date" rows.
	DefaultLevelIDsURL = "https://docs.google.com/spreadsheets/d/1uvXfx-wDsyPg5gM79NDTszFk-t6SL42seL-8dwDTJxw/gviz/tq?tqx=out:csv&sheet=cslevelids"
)

// Cutoffs maps exercise ids to their cutoff date.
type Cutoffs map[string]time.Time

// LevelTable is the Aim Lab level-id table.
type LevelTable struct {
	Levels  map[string]string // level id -> exercise id
	Cutoffs Cutoffs
}

// Fetcher downloads the tables over HTTP.
type Fetcher struct {
	client *http.Client
	logger logger.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.Get().Named("blacklist"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// VersionBlacklist fetches and parses the cutoff table at url.
func (f *Fetcher) VersionBlacklist(ctx context.Context, url string) (Cutoffs, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	cutoffs, skipped, err := ParseVersionBlacklist(body)
	if err != nil {
		return nil, model.WrapKind("blacklist.versions", model.ErrSourceUnavailable, err)
	}
	f.logger.Debug(ctx, "loaded version blacklist",
		logger.Int("entries", len(cutoffs)),
		logger.Int("skipped", skipped),
	)
	return cutoffs, nil
}

// LevelIDs fetches and parses the level-id table at url.
func (f *Fetcher) LevelIDs(ctx context.Context, url string) (LevelTable, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return LevelTable{}, err
	}
	defer func() { _ = body.Close() }()

	table, skipped, err := ParseLevelIDs(body)
	if err != nil {
		return LevelTable{}, model.WrapKind("blacklist.levels", model.ErrSourceUnavailable, err)
	}
	f.logger.Debug(ctx, "loaded level ids",
		logger.Int("entries", len(table.Levels)),
		logger.Int("skipped", skipped),
	)
	return table, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	const op = "blacklist.fetch"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, model.WrapKind(op, model.ErrSourceUnavailable, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, model.WrapKind(op, model.ErrSourceUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, model.WrapKind(op, model.ErrSourceUnavailable, fmt.Errorf("GET %s: status %d", url, resp.StatusCode))
	}
	return resp.Body, nil
}

// ParseVersionBlacklist reads "name, date" rows after a header row. Rows
// that are short or carry a malformed date are counted in skipped.
func ParseVersionBlacklist(r io.Reader) (cutoffs Cutoffs, skipped int, err error) {
	cutoffs = make(Cutoffs)
	err = eachRow(r, func(row []string) {
		if len(row) < 2 {
			skipped++
			return
		}
		d, perr := time.Parse(DateLayout, strings.TrimSpace(row[1]))
		if perr != nil {
			skipped++
			return
		}
		cutoffs[model.NormalizeID(row[0])] = d
	})
	return cutoffs, skipped, err
}

// ParseLevelIDs reads "name, level id, date" rows after a header row.
func ParseLevelIDs(r io.Reader) (table LevelTable, skipped int, err error) {
	table = LevelTable{Levels: make(map[string]string), Cutoffs: make(Cutoffs)}
	err = eachRow(r, func(row []string) {
		if len(row) < 3 || strings.TrimSpace(row[1]) == "" {
			skipped++
			return
		}
		d, perr := time.Parse(DateLayout, strings.TrimSpace(row[2]))
		if perr != nil {
			skipped++
			return
		}
		id := model.NormalizeID(row[0])
		table.Levels[strings.TrimSpace(row[1])] = id
		table.Cutoffs[id] = d
	})
	return table, skipped, err
}

// eachRow calls fn for every data row, skipping the header.
func eachRow(r io.Reader, fn func(row []string)) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if header {
			header = false
			continue
		}
		fn(row)
	}
}

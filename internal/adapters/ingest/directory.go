package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/okian/aimsync/internal/domain/model"
	"github.com/okian/aimsync/pkg/logger"
	"github.com/okian/aimsync/pkg/metrics"
)

const (
	challengeDelimiter = " - Challenge - "
	fileDateLayout     = "2006.01.02"
	scoreLabel         = "Score:"
)

// DirectoryIngestor reads result files that appeared in a stats directory
// since the previous pass. File names look like
// "<exercise> - Challenge - 2023.05.01-12.34.56 Stats.csv".
type DirectoryIngestor struct {
	fsys    fs.FS
	cutoffs map[string]time.Time // exercise id -> cutoff
	listing map[string]struct{}
	primed  bool
	logger  logger.Logger
}

// NewDirectoryIngestor creates an ingestor over fsys. Unless
// WithProcessExisting is set, the files present at the first pass are taken
// as already processed.
func NewDirectoryIngestor(fsys fs.FS, cutoffs map[string]time.Time, opts ...DirectoryOption) *DirectoryIngestor {
	in := &DirectoryIngestor{
		fsys:    fsys,
		cutoffs: maps.Clone(cutoffs),
		listing: make(map[string]struct{}),
		logger:  logger.Get().Named("ingest.directory"),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Name implements Ingestor.
func (in *DirectoryIngestor) Name() string { return "directory" }

// Prime records the current listing without processing it. It is a no-op
// once the ingestor has a listing.
func (in *DirectoryIngestor) Prime(ctx context.Context) error {
	if in.primed {
		return nil
	}
	names, err := in.list()
	if err != nil {
		return err
	}
	in.listing = toSet(names)
	in.primed = true
	in.logger.Debug(ctx, "primed stats listing", logger.Int("files", len(names)))
	return nil
}

// Ingest implements Ingestor.
func (in *DirectoryIngestor) Ingest(ctx context.Context, known func(id string) bool) ([]model.Record, error) {
	if !in.primed {
		if err := in.Prime(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	names, err := in.list()
	if err != nil {
		return nil, err
	}

	var (
		out     []model.Record
		skipped int
	)
	for _, name := range names {
		if _, old := in.listing[name]; old {
			continue
		}
		rec, ok, err := in.readRun(ctx, name, known)
		if err != nil {
			return nil, err
		}
		if !ok {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	in.listing = toSet(names)

	metrics.RecordRecordsIngested(in.Name(), len(out))
	metrics.RecordRecordsSkipped(in.Name(), skipped)
	in.logger.Debug(ctx, "directory ingestion finished",
		logger.Int("new", len(out)),
		logger.Int("skipped", skipped),
	)
	return out, nil
}

// list returns the regular file names in the directory, sorted.
func (in *DirectoryIngestor) list() ([]string, error) {
	entries, err := fs.ReadDir(in.fsys, ".")
	if err != nil {
		return nil, model.WrapKind("ingest.directory.list", model.ErrSourceUnavailable, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

// readRun parses one new file. ok is false when the file is skipped.
func (in *DirectoryIngestor) readRun(ctx context.Context, name string, known func(string) bool) (model.Record, bool, error) {
	id, played, ok := ParseFileName(name)
	if !ok {
		in.logger.Debug(ctx, "skipping file with unexpected name", logger.String("file", name))
		return model.Record{}, false, nil
	}
	if !known(id) {
		return model.Record{}, false, nil
	}
	if cutoff, ok := in.cutoffs[id]; ok {
		if played.IsZero() {
			in.logger.Warn(ctx, "skipping blacklisted run with unparseable date", logger.String("file", name))
			return model.Record{}, false, nil
		}
		if !played.After(cutoff) {
			in.logger.Debug(ctx, "skipping run played before cutoff",
				logger.String("file", name),
				logger.String("cutoff", cutoff.Format(time.DateOnly)),
			)
			return model.Record{}, false, nil
		}
	}

	f, err := in.fsys.Open(name)
	if err != nil {
		return model.Record{}, false, model.WrapKind("ingest.directory.open", model.ErrSourceUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	return model.Record{
		ExerciseID: id,
		Score:      ReadScore(f),
		PlayedAt:   played,
		Source:     name,
	}, true, nil
}

// ParseFileName extracts the exercise id and play date from a result file
// name. ok is false when the name has no challenge delimiter; played is zero
// when the date segment does not parse.
func ParseFileName(name string) (id string, played time.Time, ok bool) {
	i := strings.Index(name, challengeDelimiter)
	if i < 0 {
		return "", time.Time{}, false
	}
	id = model.NormalizeID(name[:i])
	rest := name[i+len(challengeDelimiter):]
	if j := strings.Index(rest, "-"); j >= 0 {
		rest = rest[:j]
	}
	played, err := time.Parse(fileDateLayout, rest)
	if err != nil {
		return id, time.Time{}, true
	}
	return id, played, true
}

// ReadScore scans CSV rows for the "Score:" label and returns its value
// rounded to one decimal. A missing or malformed row yields 0.
func ReadScore(r io.Reader) float64 {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return 0
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return 0
		}
		if len(row) < 2 || row[0] != scoreLabel {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return 0
		}
		return model.Round1(v)
	}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// DirectoryOption configures a DirectoryIngestor.
type DirectoryOption func(*DirectoryIngestor)

// WithProcessExisting makes the first pass treat every file as new.
func WithProcessExisting(enabled bool) DirectoryOption {
	return func(in *DirectoryIngestor) {
		if enabled {
			in.primed = true
		}
	}
}

// WithDirectoryLogger sets a custom logger.
func WithDirectoryLogger(l logger.Logger) DirectoryOption {
	return func(in *DirectoryIngestor) {
		if l != nil {
			in.logger = l
		}
	}
}

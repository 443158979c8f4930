package dataset

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/coverage-cli/internal/columns"
	"github.com/sells-group/coverage-cli/internal/coverage"
	"github.com/sells-group/coverage-cli/internal/fetcher"
	"github.com/sells-group/coverage-cli/internal/ingest"
)

// Input locates one dataset.
type Input struct {
	URI   string
	Sheet string
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	Workshops Input
	Demand    Input
	Delimiter rune
	Index     string
	Aliases   columns.Aliases
}

// SnapshotLoader produces snapshots.
type SnapshotLoader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Loader reads both datasets and builds snapshots.
type Loader struct {
	resolver *fetcher.Resolver
	opts     LoaderOptions
}

// NewLoader creates a Loader.
func NewLoader(resolver *fetcher.Resolver, opts LoaderOptions) *Loader {
	return &Loader{resolver: resolver, opts: opts}
}

// Load fetches, reads and parses both datasets concurrently.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	var (
		locations []coverage.ServiceLocation
		demand    []coverage.DemandPoint
		locRep    ingest.Report
		demRep    ingest.Report
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, m, err := l.table(gctx, l.opts.Workshops, l.schema(columns.WorkshopSchema()))
		if err != nil {
			return err
		}
		locations, locRep, err = ingest.ParseServiceLocations(t, m)
		return err
	})
	g.Go(func() error {
		t, m, err := l.table(gctx, l.opts.Demand, l.schema(columns.DemandSchema()))
		if err != nil {
			return err
		}
		demand, demRep, err = ingest.ParseDemandPoints(t, m)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := NewSnapshot(locations, demand, l.opts.Index, locRep, demRep)
	zap.L().Info("dataset: snapshot loaded",
		zap.String("component", "dataset"),
		zap.String("version", snap.Version.String()),
		zap.Int("locations", len(locations)),
		zap.Int("demand_points", len(demand)),
		zap.String("index", l.opts.Index),
		zap.Duration("elapsed", time.Since(start)),
	)
	return snap, nil
}

// Inspection describes how one dataset's headers resolved.
type Inspection struct {
	Dataset  string
	Source   string
	Headers  []string
	Resolved map[string]string
	Err      error
}

// Inspect reads both datasets' headers and reports the column each logical
// field resolved to. Resolution failures are reported in Inspection.Err;
// read failures are returned.
func (l *Loader) Inspect(ctx context.Context) ([]Inspection, error) {
	var out []Inspection
	for _, ds := range []struct {
		in     Input
		schema columns.Schema
	}{
		{l.opts.Workshops, l.schema(columns.WorkshopSchema())},
		{l.opts.Demand, l.schema(columns.DemandSchema())},
	} {
		t, err := l.read(ctx, ds.in)
		if err != nil {
			return nil, err
		}
		insp := Inspection{Dataset: ds.schema.Dataset, Source: ds.in.URI, Headers: t.Header, Resolved: map[string]string{}}
		for _, f := range ds.schema.Fields {
			if i := columns.ResolveIndex(t.Header, f.Candidates); i >= 0 {
				insp.Resolved[f.Label] = columns.Normalize(t.Header[i])
			}
		}
		if _, err := columns.ResolveSchema(t.Header, ds.schema); err != nil {
			insp.Err = err
		}
		out = append(out, insp)
	}
	return out, nil
}

// LocalFiles returns the inputs that are plain local files.
func (l *Loader) LocalFiles() []string {
	var out []string
	for _, in := range []Input{l.opts.Workshops, l.opts.Demand} {
		if in.URI != "" && !fetcher.IsRemote(in.URI) {
			out = append(out, in.URI)
		}
	}
	return out
}

func (l *Loader) schema(s columns.Schema) columns.Schema {
	return l.opts.Aliases.Apply(s)
}

func (l *Loader) table(ctx context.Context, in Input, s columns.Schema) (*ingest.Table, columns.Mapping, error) {
	t, err := l.read(ctx, in)
	if err != nil {
		return nil, columns.Mapping{}, err
	}
	m, err := columns.ResolveSchema(t.Header, s)
	if err != nil {
		return nil, columns.Mapping{}, err
	}
	return t, m, nil
}

func (l *Loader) read(ctx context.Context, in Input) (*ingest.Table, error) {
	if in.URI == "" {
		return nil, eris.New("dataset: input uri is empty")
	}
	path, err := l.resolver.Local(ctx, in.URI)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: fetch %s", in.URI)
	}
	t, err := ingest.ReadTable(path, ingest.Options{Sheet: in.Sheet, Delimiter: l.opts.Delimiter})
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", in.URI)
	}
	return t, nil
}

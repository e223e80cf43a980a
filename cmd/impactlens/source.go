package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/helpers"
	"github.com/spektr-org/impactlens/record"
	"github.com/spektr-org/impactlens/schema"
	"github.com/spektr-org/impactlens/store"
)

// ============================================================================
// DATA SOURCES — CSV exports or the configured store
// ============================================================================

type sourceFlags struct {
	file   string
	schema string
	kind   string
}

func (s *sourceFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&s.file, "file", "", "CSV export to read")
	fs.StringVar(&s.schema, "schema", "", "schema file for --file (YAML or JSON); discovered when omitted")
	fs.StringVarP(&s.kind, "kind", "k", "", "record kind to load from the store: "+kindList())
}

// dataset is a view together with the schema describing it.
type dataset struct {
	view   engine.RecordView
	schema *schema.Schema
	kind   record.Kind
}

func (d *dataset) label(n int) string {
	if d.kind != "" {
		return record.Label(d.kind, n)
	}
	if n == 1 {
		return "1 record"
	}
	return fmt.Sprintf("%d records", n)
}

func (d *dataset) measureLabel(key string) string {
	for _, m := range d.schema.Measures {
		if m.Key == key && m.Label != "" {
			return m.Label
		}
	}
	return engine.LabelForDimension(key)
}

func (s *sourceFlags) open(ctx context.Context, a *app) (*dataset, error) {
	switch {
	case s.file != "" && s.kind != "":
		return nil, errors.New("--file and --kind are mutually exclusive")
	case s.file != "":
		return openCSV(a, s.file, s.schema)
	case s.kind != "":
		kind, err := record.ParseKind(s.kind)
		if err != nil {
			return nil, err
		}
		sch, err := schema.For(kind)
		if err != nil {
			return nil, err
		}
		view, err := loadView(ctx, a, kind)
		if err != nil {
			return nil, err
		}
		return &dataset{view: view, schema: sch, kind: kind}, nil
	default:
		return nil, errors.New("one of --file or --kind is required")
	}
}

func openCSV(a *app, path, schemaPath string) (*dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	var sch *schema.Schema
	if schemaPath != "" {
		sch, err = schema.LoadFile(schemaPath)
	} else {
		sch, err = schema.Discover(bytes.NewReader(data), schema.DiscoverOptions{})
	}
	if err != nil {
		return nil, err
	}
	a.logger.Debug("schema ready",
		zap.String("name", sch.Name),
		zap.Int("dimensions", len(sch.Dimensions)),
		zap.Int("measures", len(sch.Measures)),
		zap.Int("skipped", len(sch.Skipped)))

	view, err := helpers.ReadCSVView(bytes.NewReader(data), sch)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("records read", zap.String("file", path), zap.Int("records", view.Len()))
	return &dataset{view: view, schema: sch}, nil
}

func loadView(ctx context.Context, a *app, kind record.Kind) (engine.RecordView, error) {
	switch kind {
	case record.KindProduct:
		items, err := loadAll[record.Product](ctx, a)
		return record.ProductAdapter.Bind(items), err
	case record.KindProject:
		items, err := loadAll[record.Project](ctx, a)
		return record.ProjectAdapter.Bind(items), err
	case record.KindNGOProject:
		items, err := loadAll[record.NGOProject](ctx, a)
		return record.NGOProjectAdapter.Bind(items), err
	case record.KindDonation:
		items, err := loadAll[record.Donation](ctx, a)
		return record.DonationAdapter.Bind(items), err
	case record.KindAsset:
		items, err := loadAll[record.Asset](ctx, a)
		return record.AssetAdapter.Bind(items), err
	case record.KindMeasurement:
		items, err := loadAll[record.ImpactMeasurement](ctx, a)
		return record.MeasurementAdapter.Bind(items), err
	case record.KindGoal:
		items, err := loadAll[record.ImpactGoal](ctx, a)
		return record.GoalAdapter.Bind(items), err
	}
	return nil, fmt.Errorf("unknown record kind %q", kind)
}

// openCollection opens the configured backend for T and loads it. The
// returned function closes the backend.
func openCollection[T record.Identifiable](ctx context.Context, a *app) (*store.Collection[T], func() error, error) {
	backend, closeFn, err := store.OpenBackend[T](ctx, a.cfg.StoreSettings())
	if err != nil {
		return nil, nil, err
	}
	c := store.New[T](store.WithBackend(backend), store.WithLogger(a.logger))
	if err := c.Load(ctx); err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	if a.cfg.Store.Backend == "" || a.cfg.Store.Backend == store.BackendMemory {
		a.logger.Warn("the memory backend starts empty; configure store.backend to read saved records")
	}
	return c, closeFn, nil
}

func loadAll[T record.Identifiable](ctx context.Context, a *app) ([]T, error) {
	c, closeFn, err := openCollection[T](ctx, a)
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeFn() }()
	return c.List(), nil
}

func kindList() string {
	var b bytes.Buffer
	for i, k := range record.Kinds {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(k))
	}
	return b.String()
}

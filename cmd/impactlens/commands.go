package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/impact"
	"github.com/spektr-org/impactlens/record"
	"github.com/spektr-org/impactlens/schema"
)

// ============================================================================
// FILTER
// ============================================================================

var filterCommand = command{
	name:  "filter",
	usage: "filter (--file F | --kind K) [flags]",
	short: "Filter and sort records and summarize a measure",
	setup: func(fs *flag.FlagSet) func(context.Context, *app, []string) error {
		var src sourceFlags
		var f filterFlags
		src.register(fs)
		f.register(fs)

		return func(ctx context.Context, a *app, _ []string) error {
			ds, sel, measure, err := selectRecords(ctx, a, &src, &f)
			if err != nil {
				return err
			}
			table := engine.BuildTable(ds.schema.Name, sel.View, measure, sel.Summary.Unit)
			return a.emit(result{
				Value: struct {
					Summary engine.MetricsSummary `json:"summary"`
					Table   *engine.TableData     `json:"table"`
				}{sel.Summary, table},
				Text:  func(w io.Writer) { writeSummaryText(w, ds, measure, sel.Summary) },
				Table: table,
			})
		}
	},
}

func selectRecords(ctx context.Context, a *app, src *sourceFlags, f *filterFlags) (*dataset, *engine.Selection, string, error) {
	ds, err := src.open(ctx, a)
	if err != nil {
		return nil, nil, "", err
	}
	spec, err := f.spec(a)
	if err != nil {
		return nil, nil, "", err
	}
	opts, measure, err := f.options(a, ds)
	if err != nil {
		return nil, nil, "", err
	}
	sel, err := engine.Select(ds.view, spec, opts...)
	if err != nil {
		return nil, nil, "", err
	}
	a.logger.Debug("selected", zap.Int("records", ds.view.Len()), zap.Int("matched", sel.View.Len()))
	return ds, sel, measure, nil
}

func writeSummaryText(w io.Writer, ds *dataset, measure string, s engine.MetricsSummary) {
	fmt.Fprintf(w, "%s, %s %s\n", ds.label(s.Count), ds.measureLabel(measure), engine.FormatCurrency(s.Total, s.Unit))
	if s.Count == 0 {
		return
	}
	fmt.Fprintf(w, "  average %s, min %s, max %s\n",
		engine.FormatCurrency(s.Average, s.Unit), engine.FormatCurrency(s.Min, s.Unit), engine.FormatCurrency(s.Max, s.Unit))
	if s.Period != "" {
		fmt.Fprintf(w, "  period %s, trend %s (%s)\n", s.Period, engine.FormatTrend(s.Trend), s.TrendMode)
	}
}

// ============================================================================
// GROUP
// ============================================================================

var groupCommand = command{
	name:  "group",
	usage: "group --by DIM[,DIM] (--file F | --kind K) [flags]",
	short: "Group filtered records by one or two dimensions and aggregate a measure",
	setup: func(fs *flag.FlagSet) func(context.Context, *app, []string) error {
		var src sourceFlags
		var f filterFlags
		var by []string
		var agg, order string
		var limit int
		src.register(fs)
		fs.StringSliceVarP(&by, "by", "b", nil, "dimensions to group by (at most two)")
		fs.StringVarP(&agg, "agg", "a", engine.AggSum, "aggregation: sum, count, avg, max, min")
		fs.StringVar(&order, "order", "value_desc", "value_desc, value_asc, chronological, reverse_chronological, label_asc, label_desc")
		fs.IntVar(&limit, "limit", 0, "keep the first N groups (0 keeps all)")
		f.register(fs)

		return func(ctx context.Context, a *app, _ []string) error {
			if len(by) == 0 || len(by) > 2 {
				return errors.New("--by takes one or two dimensions")
			}
			switch agg {
			case engine.AggSum, engine.AggCount, engine.AggAvg, engine.AggMax, engine.AggMin:
			default:
				return fmt.Errorf("unknown aggregation %q", agg)
			}

			ds, sel, measure, err := selectRecords(ctx, a, &src, &f)
			if err != nil {
				return err
			}
			groups := engine.GroupAndAggregate(sel.View, by, measure, agg, order, limit)

			label := engine.LabelForDimension(by[0])
			if d, ok := ds.schema.Dimension(by[0]); ok && d.Label != "" {
				label = d.Label
			}
			table := engine.BuildGroupTable(ds.schema.Name, label, agg, groups, sel.Summary.Unit)
			return a.emit(result{
				Value: struct {
					Summary engine.MetricsSummary `json:"summary"`
					Groups  []engine.Group        `json:"groups"`
				}{sel.Summary, groups},
				Text: func(w io.Writer) {
					fmt.Fprintf(w, "%s by %s (%s of %s)\n", ds.label(sel.View.Len()), label, agg, measure)
					writeGroupsText(w, groups, sel.Summary.Unit, "  ")
				},
				Table: table,
			})
		}
	},
}

func writeGroupsText(w io.Writer, groups []engine.Group, unit, indent string) {
	for _, g := range groups {
		fmt.Fprintf(w, "%s%-24s %16s  (%d)\n", indent, g.Label, engine.FormatCurrency(g.Value, unit), g.Count)
		writeGroupsText(w, g.SubGroups, unit, indent+"  ")
	}
}

// ============================================================================
// TREND
// ============================================================================

var trendCommand = command{
	name:  "trend",
	usage: "trend (--file F | --kind K) [flags]",
	short: "Monthly totals of a measure and their trend",
	setup: func(fs *flag.FlagSet) func(context.Context, *app, []string) error {
		var src sourceFlags
		var f filterFlags
		src.register(fs)
		f.register(fs)

		return func(ctx context.Context, a *app, _ []string) error {
			ds, sel, measure, err := selectRecords(ctx, a, &src, &f)
			if err != nil {
				return err
			}
			mode, _ := f.mode()
			label := ds.measureLabel(measure)
			series := engine.MonthlySeries(sel.View, measure)
			trend := engine.ComputeTrend(series, mode)

			table := &engine.TableData{
				Title: label + " by month",
				Columns: []engine.Column{
					{Key: "month", Label: "Month", Type: "text", Align: "left"},
					{Key: "value", Label: label, Type: "number", Align: "right"},
				},
			}
			for _, p := range series {
				table.Rows = append(table.Rows, []string{p.Date.Format(engine.MonthFormat), fmt.Sprintf("%.2f", p.Value)})
			}

			return a.emit(result{
				Value: struct {
					Measure   string                   `json:"measure"`
					Series    []engine.TimeSeriesPoint `json:"series"`
					Trend     float64                  `json:"trend"`
					TrendMode string                   `json:"trendMode"`
					Direction string                   `json:"direction"`
				}{measure, series, trend, mode.String(), engine.Direction(trend)},
				Text: func(w io.Writer) {
					for _, row := range table.Rows {
						fmt.Fprintf(w, "%s  %14s\n", row[0], row[1])
					}
					fmt.Fprintf(w, "trend %s (%s)\n", engine.FormatTrend(trend), mode)
				},
				Table: table,
			})
		}
	},
}

// ============================================================================
// SUMMARY — impact selectors over the store
// ============================================================================

var summaryCommand = command{
	name:  "summary",
	usage: "summary portfolio|project|donations|deliverables|impact [flags]",
	short: "Dashboard figures computed from the configured store",
	setup: func(fs *flag.FlagSet) func(context.Context, *app, []string) error {
		var f filterFlags
		var id, project string
		fs.StringVar(&id, "id", "", "NGO project id (summary project)")
		fs.StringVar(&project, "project", "", "project id (summary impact)")
		f.register(fs)

		return func(ctx context.Context, a *app, args []string) error {
			if len(args) != 1 {
				return errors.New("summary needs exactly one of portfolio, project, donations, deliverables, impact")
			}
			switch args[0] {
			case "portfolio":
				return summarizePortfolio(ctx, a)
			case "project":
				return summarizeProject(ctx, a, id)
			case "donations":
				return summarizeDonations(ctx, a, &f)
			case "deliverables":
				return summarizeDeliverables(ctx, a, &f)
			case "impact":
				return summarizeImpact(ctx, a, project)
			}
			return fmt.Errorf("unknown summary %q", args[0])
		}
	},
}

func summarizePortfolio(ctx context.Context, a *app) error {
	projects, err := loadAll[record.NGOProject](ctx, a)
	if err != nil {
		return err
	}
	p := impact.PortfolioMetrics(projects)
	return a.emit(metricsResult("Portfolio", p, []metric{
		{"Projects", num(float64(p.TotalProjects))},
		{"Active projects", num(float64(p.ActiveProjects))},
		{"Total budget", num(p.TotalBudget)},
		{"Beneficiaries", num(float64(p.TotalBeneficiaries))},
		{"Completion rate", pct(p.CompletionRate)},
	}))
}

func summarizeProject(ctx context.Context, a *app, id string) error {
	if id == "" {
		return errors.New("--id is required")
	}
	c, closeFn, err := openCollection[record.NGOProject](ctx, a)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	p, err := c.Get(id)
	if err != nil {
		return err
	}
	m := impact.MetricsFor(p)
	trends := impact.DashboardTrends(p)

	return a.emit(metricsResult(p.Name, struct {
		Metrics impact.ProjectMetrics `json:"metrics"`
		Trends  impact.Trends         `json:"trends"`
	}{m, trends}, []metric{
		{"Beneficiaries", num(float64(m.Beneficiaries))},
		{"Volunteers", num(float64(m.Volunteers))},
		{"Team hours", num(m.TeamHours)},
		{"Cost per beneficiary", num(m.CostPerBeneficiary)},
		{"Volunteers per beneficiary", num(m.VolunteerImpactRatio)},
		{"Funding used", pct(m.FundingUtilization)},
		{"Volunteer hours trend", engine.FormatTrend(trends.VolunteerHours)},
		{"Outcomes trend", engine.FormatTrend(trends.BeneficiaryOutcomes)},
		{"Donations trend", engine.FormatTrend(trends.Donations)},
	}))
}

func summarizeDonations(ctx context.Context, a *app, f *filterFlags) error {
	donations, err := loadAll[record.Donation](ctx, a)
	if err != nil {
		return err
	}
	spec, err := f.spec(a)
	if err != nil {
		return err
	}
	opts := append(a.cfg.EngineOptions(), engine.WithLogger(a.logger))
	s, err := impact.DonationStats(donations, spec, opts...)
	if err != nil {
		return err
	}

	metrics := []metric{
		{"Total", engine.FormatCurrency(s.TotalAmount, s.Currency)},
		{"Donations", num(float64(s.TotalDonations))},
		{"Donors", num(float64(s.TotalDonors))},
		{"Monthly trend", engine.FormatTrend(s.Monthly.Trend)},
	}
	for _, freq := range []string{record.FrequencyOneTime, record.FrequencyMonthly, record.FrequencyQuarterly, record.FrequencyAnnually} {
		if n := s.ByFrequency[freq]; n > 0 {
			metrics = append(metrics, metric{engine.LabelForDimension(freq), num(float64(n))})
		}
	}
	return a.emit(metricsResult("Donations", s, metrics))
}

func summarizeDeliverables(ctx context.Context, a *app, f *filterFlags) error {
	assets, err := loadAll[record.Asset](ctx, a)
	if err != nil {
		return err
	}
	spec, err := f.spec(a)
	if err != nil {
		return err
	}
	opts := append(a.cfg.EngineOptions(), engine.WithLogger(a.logger))
	list, stats, err := impact.Deliverables(assets, spec, opts...)
	if err != nil {
		return err
	}

	names := make([]string, len(list))
	for i, as := range list {
		names[i] = as.Name
	}
	return a.emit(metricsResult("Deliverables", struct {
		Assets []string                `json:"assets"`
		Stats  impact.DeliverableStats `json:"stats"`
	}{names, stats}, []metric{
		{"Assets", num(float64(stats.TotalAssets))},
		{"Downloads", num(float64(stats.TotalDownloads))},
		{"Size (bytes)", num(float64(stats.TotalSize))},
	}))
}

func summarizeImpact(ctx context.Context, a *app, project string) error {
	if project == "" {
		return errors.New("--project is required")
	}
	measurements, err := loadAll[record.ImpactMeasurement](ctx, a)
	if err != nil {
		return err
	}
	goals, err := loadAll[record.ImpactGoal](ctx, a)
	if err != nil {
		return err
	}
	s := impact.Summary(project, measurements, goals)

	return a.emit(metricsResult("Impact of "+project, s, []metric{
		{"Measurements", num(float64(s.Measurements))},
		{"Total impact", num(s.TotalImpact)},
		{"Volunteer hours", num(s.VolunteerHours)},
		{"Goals achieved", pct(s.GoalsProgress)},
		{"Impact per hour", num(s.Efficiency)},
		{"Impact trend", engine.FormatTrend(s.ImpactTrend)},
		{"Volunteer trend", engine.FormatTrend(s.VolunteerTrend)},
	}))
}

// ============================================================================
// PROGRESS — record progress on an impact goal
// ============================================================================

var progressCommand = command{
	name:  "progress",
	usage: "progress --id GOAL --value N",
	short: "Set the progress of an impact goal and update its status",
	setup: func(fs *flag.FlagSet) func(context.Context, *app, []string) error {
		var id string
		var value float64
		fs.StringVar(&id, "id", "", "goal id")
		fs.Float64Var(&value, "value", 0, "new progress value")

		return func(ctx context.Context, a *app, _ []string) error {
			if id == "" || !fs.Changed("value") {
				return errors.New("--id and --value are required")
			}
			goals, closeFn, err := openCollection[record.ImpactGoal](ctx, a)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			g, err := impact.UpdateGoalProgress(ctx, goals, id, value, time.Now().UTC())
			if err != nil {
				return err
			}
			a.logger.Info("goal updated", zap.String("id", g.ID), zap.String("status", g.Status))
			return a.emit(metricsResult("Goal "+g.ID, g, []metric{
				{"Progress", num(g.Progress)},
				{"Target", num(g.TargetValue)},
				{"Status", g.Status},
			}))
		}
	},
}

// ============================================================================
// IMPORT — load a JSON array of records into the store
// ============================================================================

var importCommand = command{
	name:  "import",
	usage: "import --kind K FILE.json",
	short: "Add the records of a JSON array to the configured store",
	setup: func(fs *flag.FlagSet) func(context.Context, *app, []string) error {
		var kind string
		fs.StringVarP(&kind, "kind", "k", "", "record kind: "+kindList())

		return func(ctx context.Context, a *app, args []string) error {
			if len(args) != 1 {
				return errors.New("import needs one JSON file")
			}
			k, err := record.ParseKind(kind)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read records: %w", err)
			}

			var n int
			switch k {
			case record.KindProduct:
				n, err = importInto[record.Product](ctx, a, data)
			case record.KindProject:
				n, err = importInto[record.Project](ctx, a, data)
			case record.KindNGOProject:
				n, err = importInto[record.NGOProject](ctx, a, data)
			case record.KindDonation:
				n, err = importInto[record.Donation](ctx, a, data)
			case record.KindAsset:
				n, err = importInto[record.Asset](ctx, a, data)
			case record.KindMeasurement:
				n, err = importInto[record.ImpactMeasurement](ctx, a, data)
			case record.KindGoal:
				n, err = importInto[record.ImpactGoal](ctx, a, data)
			}
			if err != nil {
				return err
			}

			return a.emit(result{
				Value: struct {
					Kind     record.Kind `json:"kind"`
					Imported int         `json:"imported"`
				}{k, n},
				Text: func(w io.Writer) { fmt.Fprintf(w, "imported %s\n", record.Label(k, n)) },
			})
		}
	},
}

// importInto adds records in order and stops at the first failure. Records
// added before it stay in the store.
func importInto[T record.Identifiable](ctx context.Context, a *app, data []byte) (int, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, fmt.Errorf("decode records: %w", err)
	}
	c, closeFn, err := openCollection[T](ctx, a)
	if err != nil {
		return 0, err
	}
	defer func() { _ = closeFn() }()

	for i, item := range items {
		if _, err := c.Add(ctx, item); err != nil {
			return i, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return len(items), nil
}

// ============================================================================
// REMOVE
// ============================================================================

var removeCommand = command{
	name:  "remove",
	usage: "remove --kind K --id ID",
	short: "Delete one record from the configured store",
	setup: func(fs *flag.FlagSet) func(context.Context, *app, []string) error {
		var kind, id string
		fs.StringVarP(&kind, "kind", "k", "", "record kind: "+kindList())
		fs.StringVar(&id, "id", "", "record id")

		return func(ctx context.Context, a *app, _ []string) error {
			if id == "" {
				return errors.New("--id is required")
			}
			k, err := record.ParseKind(kind)
			if err != nil {
				return err
			}

			var removed any
			switch k {
			case record.KindProduct:
				removed, err = removeFrom[record.Product](ctx, a, id)
			case record.KindProject:
				removed, err = removeFrom[record.Project](ctx, a, id)
			case record.KindNGOProject:
				removed, err = removeFrom[record.NGOProject](ctx, a, id)
			case record.KindDonation:
				removed, err = removeFrom[record.Donation](ctx, a, id)
			case record.KindAsset:
				removed, err = removeFrom[record.Asset](ctx, a, id)
			case record.KindMeasurement:
				removed, err = removeFrom[record.ImpactMeasurement](ctx, a, id)
			case record.KindGoal:
				removed, err = removeFrom[record.ImpactGoal](ctx, a, id)
			}
			if err != nil {
				return err
			}
			return a.emit(result{
				Value: removed,
				Text:  func(w io.Writer) { fmt.Fprintf(w, "removed %s %s\n", k, id) },
			})
		}
	},
}

func removeFrom[T record.Identifiable](ctx context.Context, a *app, id string) (T, error) {
	c, closeFn, err := openCollection[T](ctx, a)
	if err != nil {
		var zero T
		return zero, err
	}
	defer func() { _ = closeFn() }()
	return c.Remove(ctx, id)
}

// ============================================================================
// SCHEMA
// ============================================================================

var schemaCommand = command{
	name:  "schema",
	usage: "schema (--kind K | --file F) [flags]",
	short: "Print a built-in schema, or discover one from a CSV export (text output is YAML)",
	setup: func(fs *flag.FlagSet) func(context.Context, *app, []string) error {
		var kind, file, name string
		var keep []string
		var sample int
		fs.StringVarP(&kind, "kind", "k", "", "record kind: "+kindList())
		fs.StringVar(&file, "file", "", "CSV export to discover a schema from")
		fs.StringVar(&name, "name", "", "dataset name for a discovered schema")
		fs.StringSliceVar(&keep, "recover", nil, "skipped columns to keep as dimensions")
		fs.IntVar(&sample, "sample", schema.DefaultSampleSize, "rows to inspect")

		return func(_ context.Context, a *app, _ []string) error {
			var s *schema.Schema
			switch {
			case kind != "" && file != "":
				return errors.New("--kind and --file are mutually exclusive")
			case kind != "":
				k, err := record.ParseKind(kind)
				if err != nil {
					return err
				}
				if s, err = schema.For(k); err != nil {
					return err
				}
			case file != "":
				r, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("read data: %w", err)
				}
				defer r.Close()
				s, err = schema.Discover(r, schema.DiscoverOptions{Name: name, SampleSize: sample, Recover: keep})
				if err != nil {
					return err
				}
			default:
				return errors.New("one of --kind or --file is required")
			}

			return a.emit(result{
				Value: s,
				Text:  func(w io.Writer) { _ = schema.WriteYAML(w, s) },
				Table: schemaTable(s),
			})
		}
	},
}

func schemaTable(s *schema.Schema) *engine.TableData {
	t := &engine.TableData{
		Title: s.Name,
		Columns: []engine.Column{
			{Key: "key", Label: "Key"},
			{Key: "label", Label: "Label"},
			{Key: "role", Label: "Role"},
			{Key: "column", Label: "Column"},
			{Key: "unit", Label: "Unit"},
		},
	}
	for _, d := range s.Dimensions {
		t.Rows = append(t.Rows, []string{d.Key, d.Label, "dimension", d.Column, ""})
	}
	for _, m := range s.Measures {
		role := "measure"
		if m.Synthetic {
			role = "synthetic measure"
		}
		t.Rows = append(t.Rows, []string{m.Key, m.Label, role, m.Column, m.Unit})
	}
	return t
}

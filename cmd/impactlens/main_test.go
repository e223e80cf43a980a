package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/impact"
	"github.com/spektr-org/impactlens/record"
	"github.com/spektr-org/impactlens/store"
)

const donationsCSV = `Donor,Type,Currency,Amount,Date
Amina,monthly,XAF,"25,000",2026-01-05
Bello,one_time,XAF,"12,000",2026-01-20
Amina,monthly,XAF,"25,000",2026-02-05
Chidi,one_time,XAF,"40,000",2026-03-02
`

// env is an isolated CLI environment with a file-backed store.
type env struct {
	t      *testing.T
	dir    string
	config string
	vars   []string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{t: t, dir: dir, config: filepath.Join(dir, "impactlens.json"), vars: []string{"XDG_CONFIG_HOME=" + dir}}
	e.write("impactlens.json", `{
		"log_level": "error",
		"store": {"backend": "file", "path": "`+filepath.ToSlash(filepath.Join(dir, "data"))+`"},
	}`)
	return e
}

func (e *env) write(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (e *env) run(args ...string) (int, string, string) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		args = append(args, "--config", e.config)
	}
	code := run(context.Background(), args, &stdout, &stderr, e.vars)
	return code, stdout.String(), stderr.String()
}

func TestVersionAndUsage(t *testing.T) {
	e := newEnv(t)

	code, out, _ := e.run("--version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "impactlens "+version+"\n", out)

	code, out, _ = e.run("--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "summary portfolio|project|donations|deliverables|impact")

	code, _, errOut := e.run()
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "Usage:")

	code, _, errOut = e.run("launch")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "launch"`)
}

func TestCommandHelpAndBadFlags(t *testing.T) {
	e := newEnv(t)

	code, out, _ := e.run("filter", "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Usage: impactlens filter")
	assert.Contains(t, out, "--min-price")

	code, _, errOut := e.run("filter", "--bogus")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "bogus")
}

func TestFilterCSV(t *testing.T) {
	e := newEnv(t)
	file := e.write("donations.csv", donationsCSV)

	code, out, errOut := e.run("filter", "--file", file, "--type", "monthly")
	require.Equal(t, 0, code, errOut)

	var got struct {
		Summary engine.MetricsSummary `json:"summary"`
		Table   engine.TableData      `json:"table"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Summary.Count)
	assert.Equal(t, 50000.0, got.Summary.Total)
	assert.Equal(t, "XAF", got.Summary.Unit)
	assert.Len(t, got.Table.Rows, 2)
}

func TestFilterRejectsBadInput(t *testing.T) {
	e := newEnv(t)
	file := e.write("donations.csv", donationsCSV)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", []string{"filter"}, "one of --file or --kind"},
		{"both sources", []string{"filter", "--file", file, "--kind", "donation"}, "mutually exclusive"},
		{"bad sort", []string{"filter", "--file", file, "--sort", "random"}, `unknown sort "random"`},
		{"bad measure", []string{"filter", "--file", file, "--measure", "weight"}, `unknown measure "weight"`},
		{"inverted range", []string{"filter", "--file", file, "--min-price", "10", "--max-price", "1"}, "exceeds max"},
		{"bad format", []string{"filter", "--file", file, "--format", "xml"}, `unknown format "xml"`},
		{"bad kind", []string{"filter", "--kind", "invoice"}, "unknown record kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := e.run(tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestGroupCSV(t *testing.T) {
	e := newEnv(t)
	file := e.write("donations.csv", donationsCSV)

	code, out, errOut := e.run("group", "--file", file, "--by", "type", "--format", "csv")
	require.Equal(t, 0, code, errOut)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Type,Amount,Count", lines[0])
	assert.Equal(t, "one_time,52000.00,2", lines[1])
	assert.Equal(t, "monthly,50000.00,2", lines[2])
	assert.Equal(t, `Total,"XAF 102,000.00",4`, lines[3])

	code, _, errOut = e.run("group", "--file", file)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "--by")
}

func TestTrendText(t *testing.T) {
	e := newEnv(t)
	file := e.write("donations.csv", donationsCSV)

	code, out, errOut := e.run("trend", "--file", file, "--trend-mode", "range", "--format", "text")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "2026-01")
	assert.Contains(t, out, "37000.00")
	assert.Contains(t, out, "trend ↑ 8.1% (range)")
}

const donationsJSON = `[
	{"id": "d1", "donorId": "amina", "projectId": "wells", "amount": 25000, "currency": "XAF",
	 "frequency": "monthly", "status": "completed", "date": "2026-01-05T00:00:00Z"},
	{"id": "d2", "donorId": "bello", "projectId": "wells", "amount": 12000, "currency": "XAF",
	 "frequency": "one_time", "status": "completed", "date": "2026-01-20T00:00:00Z"},
	{"id": "d3", "donorId": "amina", "projectId": "wells", "amount": 25000, "currency": "XAF",
	 "frequency": "monthly", "status": "completed", "date": "2026-02-05T00:00:00Z"}
]`

func TestImportThenSummarizeDonations(t *testing.T) {
	e := newEnv(t)
	file := e.write("donations.json", donationsJSON)

	code, out, errOut := e.run("import", "--kind", "donation", file, "--format", "text")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "imported 3 donations\n", out)

	code, out, errOut = e.run("summary", "donations")
	require.Equal(t, 0, code, errOut)

	var got impact.DonationSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 62000.0, got.TotalAmount)
	assert.Equal(t, 3, got.TotalDonations)
	assert.Equal(t, 2, got.TotalDonors)
	assert.Equal(t, map[string]int{"monthly": 2, "one_time": 1}, got.ByFrequency)

	// Importing the same IDs again fails on the first duplicate.
	code, _, errOut = e.run("import", "--kind", "donation", file)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "record 1")

	code, out, errOut = e.run("filter", "--kind", "donation", "--format", "text")
	require.Equal(t, 0, code, errOut)
	assert.True(t, strings.HasPrefix(out, "3 donations, Amount XAF 62,000.00"), out)

	code, out, errOut = e.run("remove", "--kind", "donation", "--id", "d2", "--format", "text")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "removed donation d2\n", out)

	code, _, errOut = e.run("remove", "--kind", "donation", "--id", "d2")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `donation "d2" not found`)

	code, out, errOut = e.run("filter", "--kind", "donation", "--format", "text")
	require.Equal(t, 0, code, errOut)
	assert.True(t, strings.HasPrefix(out, "2 donations, Amount XAF 50,000.00"), out)
}

func TestFilterByStatus(t *testing.T) {
	e := newEnv(t)
	file := e.write("donations.json", `[
		{"id": "d1", "donorId": "amina", "amount": 100, "currency": "XAF",
		 "frequency": "one_time", "status": "completed", "date": "2026-01-05T00:00:00Z"},
		{"id": "d2", "donorId": "bello", "amount": 900, "currency": "XAF",
		 "frequency": "one_time", "status": "refunded", "date": "2026-01-20T00:00:00Z"}
	]`)
	code, _, errOut := e.run("import", "--kind", "donation", file)
	require.Equal(t, 0, code, errOut)

	code, out, errOut := e.run("filter", "--kind", "donation", "--status", "completed", "--format", "text")
	require.Equal(t, 0, code, errOut)
	assert.True(t, strings.HasPrefix(out, "1 donation, Amount XAF 100.00"), out)

	code, out, errOut = e.run("summary", "donations", "--status", "completed,refunded")
	require.Equal(t, 0, code, errOut)
	var got impact.DonationSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1000.0, got.TotalAmount)
}

func TestFilterSortsCSVByAmount(t *testing.T) {
	e := newEnv(t)
	file := e.write("donations.csv", donationsCSV)

	code, out, errOut := e.run("filter", "--file", file, "--sort", "price-high", "--format", "csv")
	require.Equal(t, 0, code, errOut)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "Chidi")
	assert.Contains(t, lines[4], "Bello")
}

func TestSummarizeProject(t *testing.T) {
	e := newEnv(t)
	file := e.write("projects.json", `[
		{"id": "p1", "name": "Wells", "category": "health", "status": "ongoing",
		 "budget": {"total": 1000, "used": 400}, "volunteers": 5,
		 "beneficiaries": [{"id": "b1", "count": 20}],
		 "startDate": "2026-01-01T00:00:00Z"}
	]`)
	code, _, errOut := e.run("import", "--kind", "ngo-project", file)
	require.Equal(t, 0, code, errOut)

	code, out, errOut := e.run("summary", "project", "--id", "p1")
	require.Equal(t, 0, code, errOut)
	var got struct {
		Metrics impact.ProjectMetrics `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 20, got.Metrics.Beneficiaries)
	assert.Equal(t, 20.0, got.Metrics.CostPerBeneficiary)
	assert.Equal(t, 40.0, got.Metrics.FundingUtilization)

	code, _, errOut = e.run("summary", "project", "--id", "p9")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `"p9" not found`)
}

func TestProgressUpdatesStoredGoal(t *testing.T) {
	e := newEnv(t)
	file := e.write("goals.json", `[
		{"id": "g1", "projectId": "wells", "categoryId": "water", "targetValue": 100,
		 "deadline": "2099-12-31T00:00:00Z", "status": "pending"}
	]`)
	code, _, errOut := e.run("import", "--kind", "goal", file)
	require.Equal(t, 0, code, errOut)

	code, out, errOut := e.run("progress", "--id", "g1", "--value", "80")
	require.Equal(t, 0, code, errOut)
	var g record.ImpactGoal
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Equal(t, record.GoalInProgress, g.Status)

	code, _, errOut = e.run("progress", "--id", "g1", "--value", "120")
	require.Equal(t, 0, code, errOut)

	stored, err := store.NewFileBackend[record.ImpactGoal](filepath.Join(e.dir, "data", "goal.json")).GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 120.0, stored[0].Progress)
	assert.Equal(t, record.GoalAchieved, stored[0].Status)

	code, _, errOut = e.run("progress", "--id", "g9", "--value", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "g9")

	code, _, _ = e.run("progress", "--id", "g1")
	assert.Equal(t, 1, code)
}

func TestSchemaToFile(t *testing.T) {
	e := newEnv(t)
	out := filepath.Join(e.dir, "asset.yaml")

	code, stdout, errOut := e.run("schema", "--kind", "asset", "--format", "text", "--out", out)
	require.Equal(t, 0, code, errOut)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "key: downloads")
	assert.Contains(t, string(data), "name: Production assets")
}

func TestSchemaDiscoverCSV(t *testing.T) {
	e := newEnv(t)
	file := e.write("donations.csv", donationsCSV)

	code, out, errOut := e.run("schema", "--file", file, "--name", "Gifts", "--format", "csv")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Key,Label,Role,Column,Unit\n")
	assert.Contains(t, out, "amount,Amount,measure,Amount,\n")
	assert.Contains(t, out, "month,Month,dimension,Date,\n")
}

package store_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spektr-org/impactlens/engine"
	"github.com/spektr-org/impactlens/record"
	"github.com/spektr-org/impactlens/store"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newDonations(t *testing.T, opts ...store.Option) *store.Collection[record.Donation] {
	t.Helper()
	opts = append([]store.Option{
		store.WithClock(clock),
		store.WithIDGenerator(sequentialIDs()),
		store.WithLogger(zaptest.NewLogger(t)),
	}, opts...)
	return store.New[record.Donation](opts...)
}

func donation(amount float64) record.Donation {
	return record.Donation{
		DonorID:   "donor-1",
		Amount:    amount,
		Currency:  "XAF",
		Frequency: record.FrequencyOneTime,
		Status:    record.PaymentCompleted,
		Date:      time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestAddAssignsIDAndTimestamps(t *testing.T) {
	c := newDonations(t)

	got, err := c.Add(t.Context(), donation(50))
	require.NoError(t, err)

	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, fixedNow, got.CreatedAt)
	assert.Equal(t, 50.0, got.Amount)
	assert.Equal(t, record.KindDonation, c.Kind())

	stored, err := c.Get("id-1")
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestAddKeepsExplicitID(t *testing.T) {
	c := newDonations(t)

	d := donation(10)
	d.ID = "gift-7"
	got, err := c.Add(t.Context(), d)
	require.NoError(t, err)
	assert.Equal(t, "gift-7", got.ID)

	_, err = c.Add(t.Context(), d)
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.Equal(t, 1, c.Len())
}

func TestAddRejectsInvalidRecord(t *testing.T) {
	c := newDonations(t)

	d := donation(-5)
	_, err := c.Add(t.Context(), d)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrValidation)
	assert.ErrorIs(t, err, record.ErrInvalid)
	assert.Zero(t, c.Len())
}

func TestUpdateMergesTopLevelFields(t *testing.T) {
	c := newDonations(t)
	added, err := c.Add(t.Context(), donation(50))
	require.NoError(t, err)

	got, err := c.Update(t.Context(), added.ID, store.Fields{"amount": 75, "status": record.PaymentRefunded})
	require.NoError(t, err)

	assert.Equal(t, 75.0, got.Amount)
	assert.Equal(t, record.PaymentRefunded, got.Status)
	assert.Equal(t, added.DonorID, got.DonorID, "unmentioned fields are preserved")
	assert.Equal(t, added.Date, got.Date)
	assert.Equal(t, added.CreatedAt, got.CreatedAt)

	stored, err := c.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestUpdateRejectsIDChange(t *testing.T) {
	c := newDonations(t)
	added, err := c.Add(t.Context(), donation(50))
	require.NoError(t, err)

	_, err = c.Update(t.Context(), added.ID, store.Fields{"id": "other"})
	assert.ErrorIs(t, err, store.ErrValidation)

	// Repeating the same ID is allowed.
	_, err = c.Update(t.Context(), added.ID, store.Fields{"id": added.ID})
	assert.NoError(t, err)
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	c := newDonations(t)
	added, err := c.Add(t.Context(), donation(50))
	require.NoError(t, err)

	_, err = c.Update(t.Context(), added.ID, store.Fields{"amonut": 1})
	assert.ErrorIs(t, err, store.ErrValidation)

	stored, err := c.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, stored.Amount)
}

func TestUpdateRejectsMiscasedField(t *testing.T) {
	c := newDonations(t)
	added, err := c.Add(t.Context(), donation(50))
	require.NoError(t, err)

	_, err = c.Update(t.Context(), added.ID, store.Fields{"Amount": 75})
	require.ErrorIs(t, err, store.ErrValidation)
	assert.Contains(t, err.Error(), `"amount"`)

	_, err = c.UpdateFunc(t.Context(), added.ID, func(record.Donation) (store.Fields, error) {
		return store.Fields{"AMOUNT": 75}, nil
	})
	assert.ErrorIs(t, err, store.ErrValidation)

	stored, err := c.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, stored.Amount)

	got, err := c.Update(t.Context(), added.ID, store.Fields{"amount": 75})
	require.NoError(t, err)
	assert.Equal(t, 75.0, got.Amount)
}

func TestUpdateReplacesNestedObjects(t *testing.T) {
	c := store.New[record.NGOProject](store.WithClock(clock))
	p, err := c.Add(t.Context(), record.NGOProject{
		ID: "ngo-1", Name: "Clean Water", Category: record.CategoryHealth, Status: record.StatusOngoing,
		Budget: record.Budget{Total: 1000, Used: 200, Currency: "XAF"},
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, p.UpdatedAt)

	got, err := c.Update(t.Context(), "ngo-1", store.Fields{"budget": map[string]any{"total": 1500}})
	require.NoError(t, err)
	assert.Equal(t, record.Budget{Total: 1500}, got.Budget, "shallow merge replaces the whole budget")
	assert.Equal(t, "Clean Water", got.Name)
}

func TestMissingRecords(t *testing.T) {
	c := newDonations(t)

	_, err := c.Get("nope")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = c.Update(t.Context(), "nope", store.Fields{"amount": 1})
	var nf *store.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "nope", nf.ID)
	assert.Equal(t, record.KindDonation, nf.Kind)

	_, err = c.Remove(t.Context(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRemoveKeepsOrder(t *testing.T) {
	c := newDonations(t)
	for _, amount := range []float64{1, 2, 3, 4} {
		_, err := c.Add(t.Context(), donation(amount))
		require.NoError(t, err)
	}

	removed, err := c.Remove(t.Context(), "id-2")
	require.NoError(t, err)
	assert.Equal(t, 2.0, removed.Amount)

	var ids []string
	for _, d := range c.List() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"id-1", "id-3", "id-4"}, ids)

	got, err := c.Get("id-4")
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Amount)
}

func TestListIsASnapshot(t *testing.T) {
	c := newDonations(t)
	_, err := c.Add(t.Context(), donation(1))
	require.NoError(t, err)

	list := c.List()
	list[0].Amount = 999

	got, err := c.Get("id-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Amount)
}

func TestConcurrentMutations(t *testing.T) {
	c := store.New[record.Donation]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := c.Add(context.Background(), donation(1))
			if err != nil {
				t.Errorf("add: %v", err)
				return
			}
			if _, err := c.Update(context.Background(), d.ID, store.Fields{"amount": 2}); err != nil {
				t.Errorf("update: %v", err)
			}
			_ = c.List()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
	for _, d := range c.List() {
		assert.Equal(t, 2.0, d.Amount)
	}
}

func TestQueryFiltersSnapshot(t *testing.T) {
	c := newDonations(t)
	for _, amount := range []float64{10, 300, 40} {
		_, err := c.Add(t.Context(), donation(amount))
		require.NoError(t, err)
	}

	got, err := c.Query(record.DonationAdapter, engine.FilterSpec{
		PriceRange: &engine.Range{Min: 20, Max: 500},
		SortBy:     engine.SortPriceHigh,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 300.0, got[0].Amount)
	assert.Equal(t, 40.0, got[1].Amount)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	donations := newDonations(t, store.WithRegisterer(reg))
	assets := store.New[record.Asset](store.WithRegisterer(reg))

	_, err := donations.Add(t.Context(), donation(1))
	require.NoError(t, err)
	_, err = donations.Add(t.Context(), donation(2))
	require.NoError(t, err)
	_, err = donations.Remove(t.Context(), "id-1")
	require.NoError(t, err)
	_, err = donations.Get("missing")
	require.Error(t, err)
	_, err = donations.Update(t.Context(), "missing", store.Fields{})
	require.Error(t, err)

	_, err = assets.Add(t.Context(), record.Asset{Name: "Poster", Status: record.AssetDraft})
	require.NoError(t, err)

	expected := `
# HELP impactlens_store_records Number of records held by a collection.
# TYPE impactlens_store_records gauge
impactlens_store_records{collection="asset"} 1
impactlens_store_records{collection="donation"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "impactlens_store_records"))

	n, err := testutil.GatherAndCount(reg, "impactlens_store_mutations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "donation add, donation remove, asset add")
}

// failingBackend accepts reads and rejects every write.
type failingBackend struct {
	*store.MemoryBackend[record.Donation]
}

var errBackendDown = errors.New("backend down")

func (failingBackend) Create(context.Context, record.Donation) error       { return errBackendDown }
func (failingBackend) Update(context.Context, string, record.Donation) error { return errBackendDown }
func (failingBackend) Delete(context.Context, string) error                 { return errBackendDown }

func TestBackendFailureLeavesMemoryUnchanged(t *testing.T) {
	mem := store.NewMemoryBackend[record.Donation]()
	seed := donation(5)
	seed.ID = "seed"
	require.NoError(t, mem.Create(t.Context(), seed))

	c := newDonations(t, store.WithBackend[record.Donation](failingBackend{mem}))
	require.NoError(t, c.Load(t.Context()))
	require.Equal(t, 1, c.Len())

	_, err := c.Add(t.Context(), donation(1))
	assert.ErrorIs(t, err, errBackendDown)

	_, err = c.Update(t.Context(), "seed", store.Fields{"amount": 9})
	assert.ErrorIs(t, err, errBackendDown)

	_, err = c.Remove(t.Context(), "seed")
	assert.ErrorIs(t, err, errBackendDown)

	got, err := c.Get("seed")
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Amount)
	assert.Equal(t, 1, c.Len())
}

func TestWithBackendTypeMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		store.New[record.Asset](store.WithBackend[record.Donation](store.NewMemoryBackend[record.Donation]()))
	})
}

func TestUpdateFuncSeesCurrentRecord(t *testing.T) {
	c := newDonations(t)
	added, err := c.Add(t.Context(), donation(50))
	require.NoError(t, err)

	got, err := c.UpdateFunc(t.Context(), added.ID, func(cur record.Donation) (store.Fields, error) {
		return store.Fields{"amount": cur.Amount * 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Amount)

	refuse := errors.New("refused")
	_, err = c.UpdateFunc(t.Context(), added.ID, func(record.Donation) (store.Fields, error) {
		return nil, refuse
	})
	assert.ErrorIs(t, err, refuse)

	stored, err := c.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.Amount)
}

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/orodjarna/internal/db"
	"github.com/erazemk/orodjarna/internal/model"
	"github.com/erazemk/orodjarna/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *int64) {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"A1", "A2", "A3", "C1"} {
		_, err := store.UpsertItem(ctx, database, model.Item{BarcodeID: id, Name: id})
		require.NoError(t, err)
	}
	require.NoError(t, store.SetEdges(ctx, database, model.EdgeContainer, "C1", []string{"A1", "A2"}))

	now := int64(1000)
	return &Engine{DB: database, Clock: func() time.Time { return time.Unix(now, 0) }}, &now
}

func ids(items []model.Item) []string {
	out := []string{}
	for _, it := range items {
		out = append(out, it.BarcodeID)
	}
	return out
}

func itemIDs(obs []model.InventoriedItem) []string {
	out := []string{}
	for _, o := range obs {
		out = append(out, o.ItemID)
	}
	return out
}

func observe(t *testing.T, e *Engine, id int64, itemID string, status model.InventoryStatus, notes *string) {
	t.Helper()
	_, err := e.RecordObservation(context.Background(), id, itemID, status, notes)
	require.NoError(t, err)
}

func TestAuditLifecycle(t *testing.T) {
	e, now := newTestEngine(t)
	ctx := context.Background()

	ev, err := e.StartAudit(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.AuditOpen, ev.State())
	assert.Nil(t, ev.CompleteUnixTime)
	assert.Equal(t, int64(1000), ev.StartUnixTime)

	_, err = e.RecordObservation(ctx, ev.ID, "A1", model.StatusGood, nil)
	require.NoError(t, err)

	*now = 2000
	notes := "first pass"
	done, err := e.CompleteAudit(ctx, ev.ID, &notes)
	require.NoError(t, err)
	assert.Equal(t, model.AuditClosed, done.State())
	assert.Equal(t, int64(2000), *done.CompleteUnixTime)
	assert.Equal(t, "first pass", *done.Notes)

	notGood, err := e.ItemsNotGood(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, notGood)

	// Closed audits still accept observations.
	_, err = e.RecordObservation(ctx, ev.ID, "A1", model.StatusMissing, nil)
	require.NoError(t, err)

	notGood, err = e.ItemsNotGood(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, itemIDs(notGood))

	// A second completion moves the time.
	*now = 3000
	done, err = e.CompleteAudit(ctx, ev.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), *done.CompleteUnixTime)
}

func TestAuditNotFound(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CompleteAudit(ctx, 99, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = e.GetAudit(ctx, 99)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = e.RecordObservation(ctx, 99, "A1", model.StatusGood, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = e.ItemsNotYetScanned(ctx, 99)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = e.ItemsScannedInContainer(ctx, 99, "C1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = e.ItemsNotGood(ctx, 99)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = e.Summary(ctx, 99)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRecordObservationInvalidStatus(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	ev, err := e.StartAudit(ctx)
	require.NoError(t, err)

	_, err = e.RecordObservation(ctx, ev.ID, "A1", model.InventoryStatus("LOST"), nil)
	assert.ErrorIs(t, err, model.ErrInvalidStatus)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestRecordObservationOverwrites(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	ev, err := e.StartAudit(ctx)
	require.NoError(t, err)
	n1, n2 := "dent", "fixed"
	observe(t, e, ev.ID, "A1", model.StatusDamaged, &n1)
	observe(t, e, ev.ID, "A1", model.StatusGood, &n2)

	obs, err := e.GetObservation(ctx, ev.ID, "A1")
	require.NoError(t, err)
	require.NotNil(t, obs)
	assert.Equal(t, model.StatusGood, obs.Status)
	assert.Equal(t, "fixed", *obs.Notes)

	obs, err = e.GetObservation(ctx, ev.ID, "A2")
	require.NoError(t, err)
	assert.Nil(t, obs)
}

func TestDerivedQueries(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	ev, err := e.StartAudit(ctx)
	require.NoError(t, err)
	other, err := e.StartAudit(ctx)
	require.NoError(t, err)

	observe(t, e, ev.ID, "A1", model.StatusGood, nil)
	observe(t, e, ev.ID, "A3", model.StatusWrongLocation, nil)
	observe(t, e, ev.ID, "NEW1", model.StatusNewItem, nil)
	observe(t, e, other.ID, "A2", model.StatusGood, nil)

	unscanned, err := e.ItemsNotYetScanned(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "C1"}, ids(unscanned))

	// NEW1 is not in the catalogue, so it has no container either.
	outside, err := e.ItemsScannedOutsideAnyContainer(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A3", "NEW1"}, itemIDs(outside))

	inC1, err := e.ItemsScannedInContainer(ctx, ev.ID, "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, itemIDs(inC1))

	notGood, err := e.ItemsNotGood(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A3", "NEW1"}, itemIDs(notGood))

	// Moving an item after the scan changes the result.
	require.NoError(t, store.SetEdge(ctx, e.DB, model.EdgeContainer, "A3", "C1"))
	inC1, err = e.ItemsScannedInContainer(ctx, ev.ID, "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A3"}, itemIDs(inC1))
}

func TestItemsNotGoodIncludesUncataloguedScans(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	ev, err := e.StartAudit(ctx)
	require.NoError(t, err)
	note := "found on bench"
	observe(t, e, ev.ID, "UNKNOWN-9", model.StatusNewItem, &note)

	rec, err := e.Summary(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ByStatus[model.StatusNewItem])

	notGood, err := e.ItemsNotGood(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, notGood, rec.ByStatus[model.StatusNewItem])
	assert.Equal(t, model.InventoriedItem{
		InventoryID: ev.ID,
		ItemID:      "UNKNOWN-9",
		Status:      model.StatusNewItem,
		Notes:       &note,
	}, notGood[0])
}

func TestSummary(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	ev, err := e.StartAudit(ctx)
	require.NoError(t, err)
	observe(t, e, ev.ID, "A1", model.StatusGood, nil)
	observe(t, e, ev.ID, "A2", model.StatusDamaged, nil)
	observe(t, e, ev.ID, "NEW1", model.StatusNewItem, nil)

	rec, err := e.Summary(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AuditOpen, rec.State)
	assert.Equal(t, 3, rec.Scanned)
	assert.Equal(t, 2, rec.NotYetScanned)
	assert.Equal(t, 1, rec.ByStatus[model.StatusGood])
	assert.Equal(t, 1, rec.ByStatus[model.StatusDamaged])
	assert.Equal(t, 1, rec.ByStatus[model.StatusNewItem])
	assert.Equal(t, 0, rec.ByStatus[model.StatusMissing])
	assert.Len(t, rec.ByStatus, len(model.InventoryStatuses))
}

func TestListAudits(t *testing.T) {
	e, now := newTestEngine(t)
	ctx := context.Background()

	first, err := e.StartAudit(ctx)
	require.NoError(t, err)
	*now = 5000
	second, err := e.StartAudit(ctx)
	require.NoError(t, err)

	events, err := e.ListAudits(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, second.ID, events[0].ID)
	assert.Equal(t, first.ID, events[1].ID)
}

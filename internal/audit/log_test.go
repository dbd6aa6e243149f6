package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/hospitalops/internal/dataset"
	"github.com/ashita-ai/hospitalops/internal/model"
	"github.com/ashita-ai/hospitalops/internal/testutil"
)

type recordingSink struct {
	mu   sync.Mutex
	recs []model.ControlLog
	err  error
}

func (s *recordingSink) WriteControlLog(_ context.Context, rec model.ControlLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return s.err
}

func TestNewEmptyLog(t *testing.T) {
	l := New(testutil.TestLogger(), nil)
	assert.True(t, l.IsEmpty())
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.All())

	rec := l.Append(context.Background(), Entry{Agent: model.AgentStaffMgmt, TransactionID: "STAFF-OP", Success: true})
	assert.Equal(t, firstLogID, rec.LogID)
	assert.False(t, l.IsEmpty())
}

func TestAppendAfterSeedsContinuesCounter(t *testing.T) {
	seed := dataset.SeedControlLogs(time.Now())
	l := New(testutil.TestLogger(), seed)
	require.Equal(t, 2, l.Len())

	rec := l.Append(context.Background(), Entry{
		UserRequestText: "Find patient Ahmad",
		Agent:           model.AgentPatientAdmin,
		TransactionID:   "P-2024-001",
		Success:         true,
	})
	assert.Equal(t, int64(1003), rec.LogID)

	all := l.All()
	require.Len(t, all, 3)
	assert.Equal(t, int64(1001), all[0].LogID)
	assert.Equal(t, int64(1002), all[1].LogID)
	assert.Equal(t, rec, all[2])
}

func TestAppendDefaultsRequestText(t *testing.T) {
	l := New(testutil.TestLogger(), nil)
	rec := l.Append(context.Background(), Entry{Agent: model.AgentUnknown, TransactionID: model.TransactionNA})
	assert.Equal(t, "Automated System Check", rec.UserRequestText)
}

func TestAppendUsesClock(t *testing.T) {
	fixed := time.Date(2024, 5, 20, 9, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	l := New(testutil.TestLogger(), nil, WithClock(func() time.Time { return fixed }))
	rec := l.Append(context.Background(), Entry{Agent: model.AgentBillingFinance, TransactionID: "9001", Success: true})
	assert.Equal(t, fixed.UTC(), rec.Timestamp)
	assert.Equal(t, time.UTC, rec.Timestamp.Location())
}

func TestAppendTimestampsNeverGoBackwards(t *testing.T) {
	times := []time.Time{
		time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC),
	}
	i := 0
	l := New(testutil.TestLogger(), nil, WithClock(func() time.Time {
		ts := times[i]
		i++
		return ts
	}))
	a := l.Append(context.Background(), Entry{Agent: model.AgentStaffMgmt})
	b := l.Append(context.Background(), Entry{Agent: model.AgentStaffMgmt})
	assert.False(t, b.Timestamp.Before(a.Timestamp))
	assert.Greater(t, b.LogID, a.LogID)
}

func TestAllReturnsSnapshot(t *testing.T) {
	l := New(testutil.TestLogger(), dataset.SeedControlLogs(time.Now()))
	snap := l.All()
	snap[0].TransactionID = "tampered"

	l.Append(context.Background(), Entry{Agent: model.AgentStaffMgmt, TransactionID: "NS-001", Success: true})

	assert.Len(t, snap, 2, "earlier snapshot must not grow")
	assert.Equal(t, "P-2024-001", l.All()[0].TransactionID, "snapshot edits must not reach the log")
}

func TestRecent(t *testing.T) {
	l := New(testutil.TestLogger(), dataset.SeedControlLogs(time.Now()))
	l.Append(context.Background(), Entry{Agent: model.AgentStaffMgmt, TransactionID: "NS-001", Success: true})

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(1003), recent[0].LogID)
	assert.Equal(t, int64(1002), recent[1].LogID)

	assert.Len(t, l.Recent(0), 3)
	assert.Len(t, l.Recent(50), 3)
}

func TestConcurrentAppendsAreTotallyOrdered(t *testing.T) {
	l := New(testutil.TestLogger(), dataset.SeedControlLogs(time.Now()))
	const n = 200

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Append(context.Background(), Entry{Agent: model.AgentStaffMgmt, TransactionID: "STAFF-OP", Success: i%2 == 0})
		}(i)
	}
	wg.Wait()

	all := l.All()
	require.Len(t, all, n+2)
	seen := make(map[int64]bool, len(all))
	for i, rec := range all {
		assert.False(t, seen[rec.LogID], "duplicate log_id %d", rec.LogID)
		seen[rec.LogID] = true
		if i > 0 {
			assert.Greater(t, rec.LogID, all[i-1].LogID, "log_id must increase in storage order")
			assert.False(t, rec.Timestamp.Before(all[i-1].Timestamp), "timestamps must not go backwards")
		}
	}
}

func TestSinkReceivesRecords(t *testing.T) {
	sink := &recordingSink{}
	l := New(testutil.TestLogger(), nil, WithSink(sink))

	rec := l.Append(context.Background(), Entry{Agent: model.AgentMedicalRecords, TransactionID: "P-2024-002", Success: true})

	require.Len(t, sink.recs, 1)
	assert.Equal(t, rec, sink.recs[0])
}

func TestSinkFailureDoesNotFailAppend(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	l := New(testutil.TestLogger(), nil, WithSink(sink))

	rec := l.Append(context.Background(), Entry{Agent: model.AgentMedicalRecords, TransactionID: "CLINICAL-OP"})
	assert.Equal(t, firstLogID, rec.LogID)
	assert.Equal(t, 1, l.Len())
}

type slowSink struct{ delay time.Duration }

func (s slowSink) WriteControlLog(_ context.Context, rec model.ControlLog) error {
	if rec.LogID%2 == 1 {
		time.Sleep(s.delay)
	}
	return nil
}

func TestSinksObserveLogIDOrderUnderConcurrentAppends(t *testing.T) {
	second := &recordingSink{}
	l := New(testutil.TestLogger(), dataset.SeedControlLogs(time.Now()),
		WithSink(slowSink{delay: 2 * time.Millisecond}),
		WithSink(second),
	)
	const n = 40

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(context.Background(), Entry{Agent: model.AgentBillingFinance, TransactionID: "BILL-OP"})
		}()
	}
	wg.Wait()

	second.mu.Lock()
	defer second.mu.Unlock()
	require.Len(t, second.recs, n)
	for i, rec := range second.recs {
		assert.Equal(t, int64(1003+i), rec.LogID, "sink must receive records in log_id order without gaps")
	}
}

type blockingSink struct {
	entered chan struct{}
	release chan struct{}
}

func (s blockingSink) WriteControlLog(context.Context, model.ControlLog) error {
	close(s.entered)
	<-s.release
	return nil
}

func TestReadsDoNotWaitForSinkDelivery(t *testing.T) {
	sink := blockingSink{entered: make(chan struct{}), release: make(chan struct{})}
	l := New(testutil.TestLogger(), nil, WithSink(sink))

	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Append(context.Background(), Entry{Agent: model.AgentStaffMgmt, TransactionID: "STAFF-OP"})
	}()
	<-sink.entered

	assert.Equal(t, 1, l.Len(), "the record is committed before sinks run")
	assert.Len(t, l.All(), 1)

	close(sink.release)
	<-done
}

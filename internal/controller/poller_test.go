package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ak0605-AI/Customer-Churn-System/internal/analysis"
	"github.com/ak0605-AI/Customer-Churn-System/internal/testutil"
)

func TestPollToCompletion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastConfig())

	completed := &analysis.Analysis{
		ID:             "analysis-1",
		Filename:       "customers.csv",
		Status:         analysis.StatusCompleted,
		TotalCustomers: intPtr(100),
		HighRiskCount:  intPtr(12),
		Predictions: []analysis.Prediction{
			{CustomerID: "CUST001", ChurnProbability: 0.85, RiskLevel: "High"},
		},
	}

	var polls atomic.Int64
	f.transport.setFetch(func(id string) (*analysis.Analysis, error) {
		if polls.Add(1) < 3 {
			return &analysis.Analysis{ID: id, Filename: "customers.csv", Status: analysis.StatusProcessing}, nil
		}
		job := *completed
		return &job, nil
	})

	if err := f.ctrl.Submit(context.Background(), "customers.csv", strings.NewReader("data")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	testutil.MustWaitFor(t, func() bool {
		snap := f.ctrl.Snapshot()
		return snap.HasCurrentJob() && snap.CurrentJob.IsTerminal()
	})

	snap := f.ctrl.Snapshot()
	if snap.CurrentJob.Status != analysis.StatusCompleted {
		t.Errorf("Status = %q, want completed", snap.CurrentJob.Status)
	}
	if snap.CurrentJob.RetentionRate() != 88 {
		t.Errorf("RetentionRate() = %d, want 88", snap.CurrentJob.RetentionRate())
	}
	if len(snap.CurrentJob.Predictions) != 1 {
		t.Errorf("predictions not carried into the view: %+v", snap.CurrentJob.Predictions)
	}
	if snap.UploadPhase != PhaseIdle {
		t.Errorf("UploadPhase = %q, want idle after terminal transition", snap.UploadPhase)
	}

	// The terminal event drives a history refresh through the dispatcher.
	f.transport.setList([]analysis.Analysis{*completed}, nil)
	testutil.MustWaitFor(t, func() bool {
		_, ok := f.cache.Get("analysis-1")
		return ok
	})

	// Polling stops at the terminal state.
	stopped := f.transport.fetchCalls.Load()
	time.Sleep(30 * time.Millisecond)
	if after := f.transport.fetchCalls.Load(); after != stopped {
		t.Errorf("fetches continued after terminal state: %d -> %d", stopped, after)
	}
}

func TestSingleOutstandingFetch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastConfig())

	// Each fetch takes several poll intervals. Ticks that fire mid-fetch must
	// be dropped, never stacked into concurrent fetches.
	f.transport.setFetch(func(id string) (*analysis.Analysis, error) {
		time.Sleep(20 * time.Millisecond)
		return &analysis.Analysis{ID: id, Status: analysis.StatusProcessing}, nil
	})

	if err := f.ctrl.Submit(context.Background(), "customers.csv", strings.NewReader("data")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	testutil.MustWaitFor(t, func() bool {
		return f.transport.fetchCalls.Load() >= 4
	})

	if max := f.transport.maxInFlight.Load(); max != 1 {
		t.Errorf("max concurrent fetches = %d, want 1", max)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastConfig())
	f.transport.setList([]analysis.Analysis{
		{ID: "done", Filename: "old.csv", Status: analysis.StatusCompleted},
	}, nil)
	if err := f.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.transport.setFetch(func(id string) (*analysis.Analysis, error) {
		once.Do(func() { close(entered) })
		<-release
		return &analysis.Analysis{ID: id, Filename: "customers.csv", Status: analysis.StatusProcessing}, nil
	})

	if err := f.ctrl.Submit(context.Background(), "customers.csv", strings.NewReader("data")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	<-entered // a fetch for analysis-1 is now in flight

	// Switch to a terminal history entry while that fetch is outstanding.
	if err := f.ctrl.Select("done"); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	versionAfterSelect := f.ctrl.Snapshot().Version

	// The late result carries a stale generation and must be discarded.
	close(release)
	time.Sleep(30 * time.Millisecond)

	snap := f.ctrl.Snapshot()
	if !snap.HasCurrentJob() || snap.CurrentJob.ID != "done" {
		t.Fatalf("stale poll result overwrote the selected job: %+v", snap.CurrentJob)
	}
	if snap.CurrentJob.Status != analysis.StatusCompleted {
		t.Errorf("Status = %q, want completed", snap.CurrentJob.Status)
	}
	if snap.Version != versionAfterSelect {
		t.Errorf("version advanced by a discarded result: %d -> %d", versionAfterSelect, snap.Version)
	}
}

func TestTerminalStateIsAbsorbing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastConfig())

	// First readout is already terminal; any later readout would claim
	// processing again.
	var polls atomic.Int64
	f.transport.setFetch(func(id string) (*analysis.Analysis, error) {
		if polls.Add(1) == 1 {
			return &analysis.Analysis{ID: id, Status: analysis.StatusFailed, Error: "CSV file is empty"}, nil
		}
		return &analysis.Analysis{ID: id, Status: analysis.StatusProcessing}, nil
	})

	if err := f.ctrl.Submit(context.Background(), "customers.csv", strings.NewReader("data")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	testutil.MustWaitFor(t, func() bool {
		snap := f.ctrl.Snapshot()
		return snap.HasCurrentJob() && snap.CurrentJob.Status == analysis.StatusFailed
	})

	time.Sleep(30 * time.Millisecond)
	snap := f.ctrl.Snapshot()
	if snap.CurrentJob.Status != analysis.StatusFailed {
		t.Errorf("terminal status rolled back to %q", snap.CurrentJob.Status)
	}
	if snap.CurrentJob.Error != "CSV file is empty" {
		t.Errorf("Error = %q", snap.CurrentJob.Error)
	}
}

func TestPollFailureThreshold(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastConfig()) // threshold 3
	f.transport.setFetch(func(id string) (*analysis.Analysis, error) {
		return nil, errors.New("connection refused")
	})

	if err := f.ctrl.Submit(context.Background(), "customers.csv", strings.NewReader("data")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	testutil.MustWaitFor(t, func() bool {
		return f.ctrl.Snapshot().PollStalled
	})

	snap := f.ctrl.Snapshot()
	if snap.LastPollError == "" {
		t.Error("LastPollError not surfaced")
	}
	// The job stays visible in its last known state, not marked failed.
	if !snap.HasCurrentJob() || snap.CurrentJob.Status != analysis.StatusProcessing {
		t.Errorf("unexpected current job after stall: %+v", snap.CurrentJob)
	}

	// Polling gave up at the threshold.
	time.Sleep(30 * time.Millisecond)
	if got := f.transport.fetchCalls.Load(); got != 3 {
		t.Errorf("fetch calls = %d, want exactly the threshold (3)", got)
	}
}

func TestPollFailuresResetOnSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t, fastConfig()) // threshold 3

	// Fail twice, succeed, fail twice, succeed terminally. The counter resets
	// on every success so the threshold is never reached.
	var polls atomic.Int64
	f.transport.setFetch(func(id string) (*analysis.Analysis, error) {
		switch polls.Add(1) {
		case 1, 2, 4, 5:
			return nil, errors.New("connection refused")
		case 3:
			return &analysis.Analysis{ID: id, Status: analysis.StatusProcessing}, nil
		default:
			return &analysis.Analysis{ID: id, Status: analysis.StatusCompleted,
				TotalCustomers: intPtr(10), HighRiskCount: intPtr(2)}, nil
		}
	})

	if err := f.ctrl.Submit(context.Background(), "customers.csv", strings.NewReader("data")); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	testutil.MustWaitFor(t, func() bool {
		snap := f.ctrl.Snapshot()
		return snap.HasCurrentJob() && snap.CurrentJob.IsTerminal()
	})

	if snap := f.ctrl.Snapshot(); snap.PollStalled {
		t.Error("PollStalled set even though failures never reached the threshold")
	}
}

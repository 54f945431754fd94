package metrics

import (
	"sync"
	"testing"
)

func TestIncAndGet(t *testing.T) {
	m := New(Config{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricRefreshReplay)

	if got := m.Get(MetricLoginSuccess); got != 2 {
		t.Fatalf("login success = %d, want 2", got)
	}
	if got := m.Get(MetricRefreshReplay); got != 1 {
		t.Fatalf("refresh replay = %d, want 1", got)
	}
	if got := m.Get(MetricLogout); got != 0 {
		t.Fatalf("logout = %d, want 0", got)
	}
}

func TestDisabledIsNoOp(t *testing.T) {
	m := New(Config{Enabled: false})

	m.Inc(MetricLoginSuccess)

	if got := m.Get(MetricLoginSuccess); got != 0 {
		t.Fatalf("disabled metrics recorded %d", got)
	}
}

func TestNilAndOutOfRangeAreSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	if got := m.Get(MetricLoginSuccess); got != 0 {
		t.Fatalf("nil metrics returned %d", got)
	}

	active := New(Config{Enabled: true})
	active.Inc(MetricID(-1))
	active.Inc(MetricIDCount)
	active.Inc(MetricID(9999))
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Inc(MetricLogout)

	snap := m.Snapshot()
	if snap.Counters[MetricLogout] != 1 {
		t.Fatalf("snapshot logout = %d, want 1", snap.Counters[MetricLogout])
	}

	m.Inc(MetricLogout)
	if snap.Counters[MetricLogout] != 1 {
		t.Fatal("snapshot mutated by later increment")
	}
}

func TestConcurrentIncrements(t *testing.T) {
	m := New(Config{Enabled: true})

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricRefreshSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Get(MetricRefreshSuccess); got != workers*perWorker {
		t.Fatalf("refresh success = %d, want %d", got, workers*perWorker)
	}
}

package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adverant/flashread-worker/internal/model"
)

// simulatedJobTable is a minimal in-memory stand-in for the jobs table,
// used to exercise the claim/fail state-machine transitions of
// Gateway.Claim and Gateway.Fail without a live Postgres connection. It reproduces exactly one
// property of Gateway.Claim: the compare-and-set that flips
// status='pending' to status='processing' only succeeds for one caller
// when several race the same row.
type simulatedJobTable struct {
	mu  sync.Mutex
	job model.Job
}

func (s *simulatedJobTable) claim(workerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job.Status != model.JobPending {
		return false
	}
	s.job.Status = model.JobProcessing
	locked := workerID
	s.job.LockedBy = &locked
	return true
}

func (s *simulatedJobTable) fail(maxAttempts int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.job.Attempts++
	if s.job.Attempts >= maxAttempts {
		s.job.Status = model.JobFailed
	} else {
		s.job.Status = model.JobPending
	}
	s.job.LockedBy = nil
}

func TestClaimProtocol_ConcurrentWorkersRacingExactlyOneWins(t *testing.T) {
	table := &simulatedJobTable{job: model.Job{Status: model.JobPending, MaxAttempts: 3}}

	const workers = 8
	results := make([]bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = table.claim("worker")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, won := range results {
		if won {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, model.JobProcessing, table.job.Status)
}

func TestClaimProtocol_FailWithRetryAvailableRestoresPendingAndClearsLock(t *testing.T) {
	table := &simulatedJobTable{job: model.Job{Status: model.JobPending, MaxAttempts: 3}}
	assert.True(t, table.claim("worker-1"))

	table.fail(3)

	assert.Equal(t, model.JobPending, table.job.Status)
	assert.Nil(t, table.job.LockedBy)

	// A second claim on the same row now succeeds.
	assert.True(t, table.claim("worker-2"))
}

func TestClaimProtocol_FailAtMaxAttemptsIsPermanent(t *testing.T) {
	table := &simulatedJobTable{job: model.Job{Status: model.JobPending, Attempts: 2, MaxAttempts: 3}}
	assert.True(t, table.claim("worker-1"))

	table.fail(3)

	assert.Equal(t, model.JobFailed, table.job.Status)
	assert.False(t, table.claim("worker-2"))
}

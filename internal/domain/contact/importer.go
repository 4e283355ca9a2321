package contact

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// ImportResult summarizes one bulk import.
type ImportResult struct {
	Received int `json:"received"`
	Imported int `json:"imported"`
	Replaced int `json:"replaced"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// JobState is the lifecycle of a queued import.
type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// ImportJob tracks a background import.
type ImportJob struct {
	ID         string        `json:"id"`
	State      JobState      `json:"state"`
	Received   int           `json:"received"`
	Result     *ImportResult `json:"result,omitempty"`
	Error      string        `json:"error,omitempty"`
	QueuedAt   time.Time     `json:"queuedAt"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
}

// Import merges rows into the table. Rows without a name are skipped. Rows
// sharing (firstName, lastName, email) collapse to the last one, and an
// incoming row replaces the existing contact with the same key while keeping
// its id. The table is written once.
func (s *Service) Import(ctx context.Context, rows []CreateRequest) (ImportResult, error) {
	result := ImportResult{Received: len(rows)}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, err := s.contacts.List(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: loading contacts: %w", ErrStorageRead, err)
	}

	merged := make([]Contact, 0, len(existing)+len(rows))
	byKey := make(map[DedupKey]int, len(existing))
	emailOwner := make(map[string]DedupKey, len(existing))
	for _, c := range existing {
		byKey[c.Key()] = len(merged)
		if c.Email != nil {
			emailOwner[*c.Email] = c.Key()
		}
		merged = append(merged, c)
	}
	preexisting := len(merged)

	replacedSlots := make(map[int]bool)
	for _, row := range rows {
		c, err := newContact(row)
		if err != nil {
			result.Skipped++
			continue
		}
		key := c.Key()
		if c.Email != nil {
			if owner, ok := emailOwner[*c.Email]; ok && owner != key {
				result.Skipped++
				continue
			}
			emailOwner[*c.Email] = key
		}

		if idx, ok := byKey[key]; ok {
			c.ID = merged[idx].ID
			merged[idx] = *c
			if idx < preexisting {
				replacedSlots[idx] = true
			}
			continue
		}
		byKey[key] = len(merged)
		merged = append(merged, *c)
	}

	if err := s.contacts.ReplaceAll(ctx, merged); err != nil {
		return result, fmt.Errorf("%w: replacing contacts: %w", ErrStorageWrite, err)
	}
	s.cache.Invalidate()

	result.Replaced = len(replacedSlots)
	result.Imported = len(merged) - preexisting + result.Replaced
	result.Total = len(merged)
	s.logger.Info("contacts imported",
		zap.Int("received", result.Received),
		zap.Int("imported", result.Imported),
		zap.Int("replaced", result.Replaced),
		zap.Int("skipped", result.Skipped),
		zap.Int("total", result.Total),
	)
	return result, nil
}

// QueueImport runs Import in the background and returns immediately.
func (s *Service) QueueImport(rows []CreateRequest) ImportJob {
	job := s.jobs.add(len(rows))

	s.importsWG.Add(1)
	go func() {
		defer s.importsWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.importTimeout)
		defer cancel()

		s.jobs.update(job.ID, func(j *ImportJob) { j.State = JobRunning })
		result, err := s.Import(ctx, rows)
		finished := time.Now().UTC()
		s.jobs.update(job.ID, func(j *ImportJob) {
			j.FinishedAt = &finished
			if err != nil {
				j.State = JobFailed
				j.Error = err.Error()
				return
			}
			j.State = JobDone
			j.Result = &result
		})
		if err != nil {
			s.logger.Error("background import failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}()

	return job
}

// ImportStatus returns a snapshot of a queued import.
func (s *Service) ImportStatus(id string) (ImportJob, error) {
	job, ok := s.jobs.get(id)
	if !ok {
		return ImportJob{}, ErrImportNotFound
	}
	return job, nil
}

// WaitImports blocks until background imports finish or ctx is done.
func (s *Service) WaitImports(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.importsWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

const maxRetainedJobs = 64

type jobRegistry struct {
	mu    sync.Mutex
	jobs  map[string]*ImportJob
	order []string
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: make(map[string]*ImportJob)}
}

func (r *jobRegistry) add(received int) ImportJob {
	job := &ImportJob{
		ID:       ksuid.New().String(),
		State:    JobQueued,
		Received: received,
		QueuedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	r.order = append(r.order, job.ID)
	if len(r.order) > maxRetainedJobs {
		delete(r.jobs, r.order[0])
		r.order = r.order[1:]
	}
	return *job
}

func (r *jobRegistry) update(id string, fn func(*ImportJob)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		fn(job)
	}
}

func (r *jobRegistry) get(id string) (ImportJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return ImportJob{}, false
	}
	return *job, true
}

package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shelftrack/shelftrack/internal/config"
	"github.com/shelftrack/shelftrack/internal/database/library"
	"github.com/shelftrack/shelftrack/internal/tasks"
)

// syncBatchSize caps how many enrichment tasks a single sweep enqueues.
const syncBatchSize = 50

// MetadataSyncScheduler periodically sweeps the library for books with
// missing metadata (page count, genre, synopsis) and enqueues enrichment
// tasks for them. The actual lookups run on the task queue so a slow
// metadata provider never blocks the scheduler.
type MetadataSyncScheduler struct {
	library    *library.Repository
	taskClient *tasks.Client
	config     config.MetadataSync

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

// NewMetadataSyncScheduler creates a new scheduler instance
func NewMetadataSyncScheduler(repo *library.Repository, taskClient *tasks.Client, cfg config.MetadataSync) *MetadataSyncScheduler {
	return &MetadataSyncScheduler{
		library:    repo,
		taskClient: taskClient,
		config:     cfg,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if metadata sync is enabled
func (s *MetadataSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Metadata sync scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Metadata sync scheduler: started with schedule '%s'", s.config.Schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *MetadataSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Metadata sync scheduler: stopped")
}

// RunNow triggers an immediate sweep
func (s *MetadataSyncScheduler) RunNow() error {
	go s.runSync()
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *MetadataSyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a sweep is currently in progress
func (s *MetadataSyncScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// GetNextRunTime returns when the next sweep will occur
func (s *MetadataSyncScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSync finds books with missing metadata and enqueues enrichment tasks
func (s *MetadataSyncScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Metadata sync: skipped (already syncing)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	books, err := s.library.ListMissingMetadata(syncBatchSize)
	if err != nil {
		log.Printf("Metadata sync: failed to list books missing metadata: %v", err)
		return
	}

	if len(books) == 0 {
		log.Printf("Metadata sync: all library books have metadata")
		return
	}

	startTime := time.Now()
	var enqueued int
	for _, book := range books {
		task := tasks.EnrichLibraryBookTask{BookID: book.ID, UserID: book.UserID}
		if _, err := s.taskClient.Add(task).Save(); err != nil {
			log.Printf("Metadata sync: warning - failed to enqueue enrichment for '%s': %v", book.Title, err)
			continue
		}
		enqueued++
	}

	log.Printf("Metadata sync: enqueued %d enrichment tasks in %v",
		enqueued, time.Since(startTime).Round(time.Millisecond))
}

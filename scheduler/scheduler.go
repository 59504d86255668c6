// Package scheduler implements background job scheduling
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"financeapi.app/config"
)

// warmTimeout bounds one categories warm pass
const warmTimeout = 30 * time.Second

// SessionStore removes expired sessions
type SessionStore interface {
	DeleteExpired() error
}

// CategoryWarmer keeps the shared categories cache entry hot
type CategoryWarmer interface {
	WarmCategories(ctx context.Context) error
}

// Scheduler manages periodic tasks for the application
type Scheduler struct {
	config   *config.Config
	sessions SessionStore
	warmer   CategoryWarmer

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScheduler creates and configures a new task scheduler
func NewScheduler(config *config.Config, sessions SessionStore, warmer CategoryWarmer) *Scheduler {
	return &Scheduler{
		config:   config,
		sessions: sessions,
		warmer:   warmer,
		stop:     make(chan struct{}),
	}
}

// Start begins the scheduler's operations
func (s *Scheduler) Start() {
	s.schedule(time.Duration(s.config.Scheduler.SessionCleanupInterval)*time.Minute, s.cleanupExpiredSessions)
	s.schedule(time.Duration(s.config.Scheduler.CategoriesWarmInterval)*time.Minute, s.warmCategories)
}

// Stop halts all scheduled jobs and waits for running ones to finish
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// schedule runs the job immediately, then on every tick until Stop
func (s *Scheduler) schedule(interval time.Duration, job func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		job()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				job()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Scheduler) cleanupExpiredSessions() {
	if err := s.sessions.DeleteExpired(); err != nil {
		log.Printf("Error cleaning up expired sessions: %v\n", err)
	}
}

func (s *Scheduler) warmCategories() {
	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	defer cancel()

	if err := s.warmer.WarmCategories(ctx); err != nil {
		log.Printf("Error warming categories cache: %v\n", err)
	}
}

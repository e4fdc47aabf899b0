// Package scheduler runs the periodic date-based due sweep across all users.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	appctx "github.com/hawkinslabdev/rideway-sub002/pkg/context"
	"github.com/hawkinslabdev/rideway-sub002/pkg/maintenance"
	"github.com/hawkinslabdev/rideway-sub002/pkg/metrics"
	"github.com/hawkinslabdev/rideway-sub002/pkg/ratelimit"
	"github.com/hawkinslabdev/rideway-sub002/pkg/tracing"
)

var (
	// ErrSchedulerAlreadyRunning is returned when trying to start an already running scheduler
	ErrSchedulerAlreadyRunning = errors.New("scheduler already running")
)

const (
	// DefaultPollInterval is the default interval between due sweeps
	DefaultPollInterval = 15 * time.Minute
)

// UserLister returns the users that have date-based schedules to check.
type UserLister interface {
	ListUsersWithDateDueTasks(ctx context.Context) ([]uuid.UUID, error)
}

// Config holds configuration for the scheduler
type Config struct {
	// PollInterval is how often to sweep for date-due tasks
	PollInterval time.Duration
}

// Scheduler polls for users with date-based schedules and runs the due-check
// pipeline for each, throttled per user by the rate limit manager.
type Scheduler struct {
	users   UserLister
	service *maintenance.Service
	limits  *ratelimit.Manager
	config  Config
	logger  ectologger.Logger

	stopCh   chan struct{}
	stoppedC chan struct{}
	running  bool
	mu       sync.RWMutex
}

// NewScheduler creates a new scheduler. limits may be nil to disable
// per-user throttling.
func NewScheduler(
	users UserLister,
	service *maintenance.Service,
	limits *ratelimit.Manager,
	config Config,
	logger ectologger.Logger,
) *Scheduler {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	return &Scheduler{
		users:    users,
		service:  service,
		limits:   limits,
		config:   config,
		logger:   logger,
		stopCh:   make(chan struct{}),
		stoppedC: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	s.logger.WithContext(ctx).Infof("Starting due-check scheduler: poll_interval=%s", s.config.PollInterval)

	go s.pollLoop(ctx)

	return nil
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.WithContext(ctx).Info("Stopping due-check scheduler...")

	close(s.stopCh)

	select {
	case <-s.stoppedC:
		s.logger.WithContext(ctx).Info("Due-check scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.WithContext(ctx).Warn("Due-check scheduler shutdown timed out")
		return ctx.Err()
	}

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// pollLoop continuously sweeps for date-due tasks
func (s *Scheduler) pollLoop(ctx context.Context) {
	defer close(s.stoppedC)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	// Run immediately on start
	s.runSweep(ctx)

	for {
		select {
		case <-s.stopCh:
			s.logger.WithContext(ctx).Debug("Due-check poll loop stopping")
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

// runSweep runs a single due-check sweep across all users
func (s *Scheduler) runSweep(ctx context.Context) {
	ctx, span := tracing.StartSpan(ctx, "Scheduler.runSweep")
	defer span.End()

	start := time.Now()

	userIDs, err := s.users.ListUsersWithDateDueTasks(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to list users for due sweep")
		metrics.DueCheckSweeps.WithLabelValues("error").Inc()
		return
	}

	if len(userIDs) == 0 {
		metrics.DueCheckSweeps.WithLabelValues("empty").Inc()
		return
	}

	total := 0
	for _, userID := range userIDs {
		if s.limits != nil && !s.limits.AllowDueCheck(ctx, userID) {
			continue
		}

		// Repositories scope every query by the user in context.
		userCtx := appctx.SetUserID(ctx, userID.String())
		count, err := s.service.RunDueCheck(userCtx, userID)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
				"user_id": userID.String(),
			}).Error("Due check failed for user")
			continue
		}
		total += count
	}

	metrics.DueCheckSweeps.WithLabelValues("ok").Inc()
	s.logger.WithContext(ctx).Infof("Due sweep finished: users=%d dispatched=%d duration=%s",
		len(userIDs), total, time.Since(start))
}

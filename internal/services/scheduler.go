package services

import (
	"fmt"
	"os"
	"time"

	"github.com/clinscribe/backend/internal/models"
	"github.com/clinscribe/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	lockRetentionSweep = "retention_sweep"
	lockQuotaReset     = "quota_reset"
)

// SchedulerService runs the recurring maintenance jobs: the nightly TTL
// sweep over the cache and the billing-day quota reset. Each run is
// guarded by a DB lock keyed on the date so multi-replica deployments
// execute it exactly once.
type SchedulerService struct {
	db            *gorm.DB
	retention     *RetentionService
	ledger        *UsageLedgerService
	cronScheduler *cron.Cron
	instanceID    string
}

func NewSchedulerService(db *gorm.DB, retention *RetentionService, ledger *UsageLedgerService) *SchedulerService {
	host, _ := os.Hostname()
	return &SchedulerService{
		db:         db,
		retention:  retention,
		ledger:     ledger,
		instanceID: fmt.Sprintf("%s-%d", host, os.Getpid()),
	}
}

func (s *SchedulerService) Start() {
	s.cronScheduler = cron.New()

	if _, err := s.cronScheduler.AddFunc("0 3 * * *", s.RunRetentionSweep); err != nil {
		logger.Errorf("[Scheduler] Failed to add retention sweep job: %v", err)
	}
	if _, err := s.cronScheduler.AddFunc("30 0 * * *", s.RunQuotaReset); err != nil {
		logger.Errorf("[Scheduler] Failed to add quota reset job: %v", err)
	}

	s.cronScheduler.Start()
	logger.Infof("[Scheduler] Started (sweep 03:00, quota reset 00:30)")
}

func (s *SchedulerService) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

// RunRetentionSweep deletes cache entries past their TTL.
func (s *SchedulerService) RunRetentionSweep() {
	if !s.tryAcquireLock(lockRetentionSweep) {
		logger.Infof("[Scheduler] Retention sweep already claimed by another instance")
		return
	}
	deleted := s.retention.SweepExpired()
	logger.Infof("[Scheduler] Retention sweep done, %d entries removed", deleted)
}

// RunQuotaReset rolls over monthly quotas for accounts whose billing
// period has ended.
func (s *SchedulerService) RunQuotaReset() {
	if !s.tryAcquireLock(lockQuotaReset) {
		logger.Infof("[Scheduler] Quota reset already claimed by another instance")
		return
	}
	reset, err := s.ledger.ResetDueAccounts()
	if err != nil {
		logger.Errorf("[Scheduler] Quota reset pass failed: %v", err)
		return
	}
	logger.Infof("[Scheduler] Quota reset done, %d accounts rolled over", reset)
}

// tryAcquireLock claims today's run of the named job. The unique index
// on (lock_name, lock_key) makes the insert race-safe: whichever replica
// commits first owns the run.
func (s *SchedulerService) tryAcquireLock(name string) bool {
	now := time.Now()
	lock := models.SchedulerLock{
		LockName:  name,
		LockKey:   now.Format("2006-01-02"),
		LockedBy:  s.instanceID,
		LockedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
	}

	if err := s.db.Create(&lock).Error; err != nil {
		return false
	}

	// Expired locks from past days are dead weight, drop them here.
	s.db.Where("expires_at < ?", now).Delete(&models.SchedulerLock{})
	return true
}

package services

import (
	"time"

	"github.com/clinscribe/backend/internal/config"
	"github.com/clinscribe/backend/internal/models"
	"github.com/clinscribe/backend/pkg/logger"
	"gorm.io/gorm"
)

// RetentionService owns the TTL expiry sweep and the cascading
// right-to-be-forgotten deletion across cache entries and training data.
// All deletes run in fixed-size batches so a crash mid-sweep loses no
// committed work; deletes are idempotent and a sweep can resume anywhere.
type RetentionService struct {
	db        *gorm.DB
	ttl       time.Duration
	batchSize int
}

func NewRetentionService(db *gorm.DB, cfg *config.CacheConfig) *RetentionService {
	return &RetentionService{
		db:        db,
		ttl:       time.Duration(cfg.TTLDays) * 24 * time.Hour,
		batchSize: cfg.SweepBatchSize,
	}
}

// SweepExpired deletes all cache entries older than the TTL and returns
// the number removed.
func (s *RetentionService) SweepExpired() int64 {
	cutoff := time.Now().Add(-s.ttl)
	deleted := s.batchDelete(&models.CacheEntry{}, "created_at < ?", cutoff)
	if deleted > 0 {
		logger.Infof("[Retention] Swept %d expired cache entries (cutoff %s)", deleted, cutoff.Format(time.RFC3339))
	}
	return deleted
}

// DeleteUserCache removes every cache entry owned by the user. Idempotent:
// a second call returns 0.
func (s *RetentionService) DeleteUserCache(userID uint) int64 {
	deleted := s.batchDelete(&models.CacheEntry{}, "user_id = ?", userID)
	logger.Infof("[Retention] Deleted %d cache entries for user %d", deleted, userID)
	return deleted
}

// DeleteUserTrainingData removes every training example captured for the
// user. Idempotent.
func (s *RetentionService) DeleteUserTrainingData(userID uint) int64 {
	deleted := s.batchDelete(&models.TrainingExample{}, "user_id = ?", userID)
	logger.Infof("[Retention] Deleted %d training examples for user %d", deleted, userID)
	return deleted
}

// PurgeUser cascades the full right-to-be-forgotten deletion. Each store
// is attempted independently so one failing table does not block progress
// on the other.
func (s *RetentionService) PurgeUser(userID uint) (cacheDeleted, trainingDeleted int64) {
	cacheDeleted = s.DeleteUserCache(userID)
	trainingDeleted = s.DeleteUserTrainingData(userID)
	return cacheDeleted, trainingDeleted
}

// batchDelete removes matching rows of one model in batches bounded by
// the store's per-operation ceiling. Each batch commits on its own; an
// error stops the sweep with the already-deleted count, and a retry picks
// up where it left off.
func (s *RetentionService) batchDelete(model interface{}, cond string, arg interface{}) int64 {
	var total int64
	for {
		var ids []uint
		err := s.db.Model(model).Where(cond, arg).
			Limit(s.batchSize).Pluck("id", &ids).Error
		if err != nil {
			logger.Errorf("[Retention] Batch select failed: %v", err)
			return total
		}
		if len(ids) == 0 {
			return total
		}

		result := s.db.Where("id IN ?", ids).Delete(model)
		if result.Error != nil {
			logger.Errorf("[Retention] Batch delete failed: %v", result.Error)
			return total
		}
		total += result.RowsAffected

		if len(ids) < s.batchSize {
			return total
		}
	}
}

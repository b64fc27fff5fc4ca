package scheduler

import (
	"github.com/robfig/cron/v3"
	"github.com/storeup/storeup-backend/pkg/logger"
)

// Purger drops expired cache entries and reports how many went.
type Purger interface {
	PurgeExpired() int
}

// CacheScheduler sweeps the in-memory tenant cache on a cron schedule.
// Expired entries are otherwise only dropped when their key is read again.
type CacheScheduler struct {
	cron   *cron.Cron
	purger Purger
	spec   string
}

func NewCacheScheduler(purger Purger, spec string) *CacheScheduler {
	return &CacheScheduler{
		cron:   cron.New(),
		purger: purger,
		spec:   spec,
	}
}

func (s *CacheScheduler) purge() {
	removed := s.purger.PurgeExpired()
	if removed > 0 {
		logger.Debug("Purged expired tenant cache entries", map[string]interface{}{
			"removed": removed,
		})
	}
}

// Start registers the purge job and starts the cron runner.
func (s *CacheScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.purge); err != nil {
		logger.Error("Failed to add tenant cache purge job", err, map[string]interface{}{
			"schedule": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Tenant cache scheduler started", map[string]interface{}{
		"schedule": s.spec,
	})
	return nil
}

// Stop waits for a running purge to finish.
func (s *CacheScheduler) Stop() {
	logger.Info("Stopping tenant cache scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Tenant cache scheduler stopped")
}

package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/spray-advisory/internal/weather"
)

const (
	warmTimeout         = 30 * time.Second
	defaultWarmInterval = 25 * time.Minute
)

// Refresher refetches and caches the forecast for a postal code.
type Refresher interface {
	Refresh(ctx context.Context, postalCode string) []weather.Forecast
}

// Scheduler periodically refreshes cached forecasts for configured postal codes
// so that interactive requests are served from cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	postcodes []string
	interval  time.Duration
}

// New creates a new Scheduler.
func New(postcodes []string, interval time.Duration, refresher Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		postcodes: postcodes,
		interval:  interval,
	}
}

// Start schedules the warm-up job and starts the underlying scheduler. The
// first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.postcodes) == 0 {
		log.Println("scheduler: no postcodes configured; nothing to warm")
		return nil
	}

	if _, err := s.scheduler.Every(s.warmInterval()).Do(s.WarmAll); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) warmInterval() time.Duration {
	if s.interval <= 0 {
		return defaultWarmInterval
	}
	return s.interval
}

// WarmAll refreshes every configured postal code concurrently.
func (s *Scheduler) WarmAll() {
	log.Println("scheduler: running forecast warm-up job")

	var wg sync.WaitGroup
	for _, pc := range s.postcodes {
		pc := pc
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
			defer cancel()

			days := s.refresher.Refresh(ctx, pc)
			if len(days) == 0 || days[0].Source == weather.SyntheticSource {
				log.Printf("scheduler: no provider data for %s; synthetic forecast cached", pc)
			}
		}()
	}
	wg.Wait()
	log.Println("scheduler: completed forecast warm-up job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

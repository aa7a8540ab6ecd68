package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"tanigpt/internal/conversation"
)

// Scheduler sweeps the in-memory conversation sessions so an abandoned
// half-finished dialogue does not linger forever.
type Scheduler struct {
	cron     *cron.Cron
	sessions *conversation.Sessions
	ttl      time.Duration
}

func New(sessions *conversation.Sessions, ttl time.Duration) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		sessions: sessions,
		ttl:      ttl,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("@hourly", func() {
		if removed := s.sessions.ExpireIdle(s.ttl); removed > 0 {
			log.Printf("expired %d idle conversation sessions", removed)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("session sweeper started, ttl=%s", s.ttl)
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	log.Printf("session sweeper stopped")
}

package surface

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/robfig/cron/v3"
)

// DefaultJanitorSchedule runs Optimize every thirty seconds.
const DefaultJanitorSchedule = "@every 30s"

// Janitor calls Pool.Optimize on a cron schedule.
type Janitor struct {
	pool *Pool
	cron *cron.Cron
	log  hclog.Logger
}

// NewJanitor schedules Optimize on p. The schedule uses standard cron syntax
// or a descriptor such as "@every 1m". Call Start to begin.
func NewJanitor(p *Pool, schedule string, logger hclog.Logger) (*Janitor, error) {
	if schedule == "" {
		schedule = DefaultJanitorSchedule
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	j := &Janitor{pool: p, cron: cron.New(), log: logger}
	if _, err := j.cron.AddFunc(schedule, j.Run); err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start runs the schedule in the background.
func (j *Janitor) Start() { j.cron.Start() }

// Stop halts the schedule and waits for a running pass to finish.
func (j *Janitor) Stop() { <-j.cron.Stop().Done() }

// Run performs one optimization pass.
func (j *Janitor) Run() {
	if n := j.pool.Optimize(); n > 0 {
		st := j.pool.Stats()
		j.log.Debug("janitor evicted idle surfaces",
			"evicted", n, "pool_size", st.PoolSize, "complexity", st.Complexity)
	}
}

package rebalancing

import (
	"github.com/rs/zerolog"
)

// CheckJob periodically evaluates drift against the configured threshold.
// It only reports; trades are placed through the execute endpoint, never
// automatically.
type CheckJob struct {
	service *Service
	log     zerolog.Logger
}

// NewCheckJob creates a drift check job.
func NewCheckJob(service *Service, log zerolog.Logger) *CheckJob {
	return &CheckJob{
		service: service,
		log:     log.With().Str("job", "rebalance_check").Logger(),
	}
}

// Name returns the job name.
func (j *CheckJob) Name() string {
	return "rebalance_check"
}

// Run evaluates current drift and logs when it exceeds the threshold.
func (j *CheckJob) Run() error {
	status, err := j.service.DriftReport()
	if err != nil {
		return err
	}

	if status.Triggered {
		j.log.Warn().
			Float64("max_drift", status.MaxDrift).
			Float64("threshold", status.Threshold).
			Msg("Portfolio drift exceeds threshold, rebalance recommended")
	} else {
		j.log.Debug().
			Float64("max_drift", status.MaxDrift).
			Msg("Portfolio within drift threshold")
	}

	return nil
}

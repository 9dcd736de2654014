package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickerSource lists the tickers whose prices should be kept current.
type TickerSource interface {
	Tickers() ([]string, error)
}

// SyncJob periodically refreshes price history for all held tickers.
type SyncJob struct {
	service *Service
	source  TickerSource
	timeout time.Duration
	log     zerolog.Logger
}

// NewSyncJob creates a price sync job.
func NewSyncJob(service *Service, source TickerSource, log zerolog.Logger) *SyncJob {
	return &SyncJob{
		service: service,
		source:  source,
		timeout: 5 * time.Minute,
		log:     log.With().Str("job", "price_sync").Logger(),
	}
}

// Name returns the job name.
func (j *SyncJob) Name() string {
	return "price_sync"
}

// Run fetches fresh prices for every held ticker.
func (j *SyncJob) Run() error {
	tickers, err := j.source.Tickers()
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		j.log.Debug().Msg("No tickers to sync")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	return j.service.Sync(ctx, tickers)
}

// Package refresh pulls the configured ICS feeds into the record store,
// once on demand or on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"agendacal/internal/clock"
	"agendacal/internal/datekey"
	"agendacal/internal/ics"
	appLog "agendacal/internal/log"
	"agendacal/internal/model"
)

// maxParallelFeeds bounds concurrent feed downloads.
const maxParallelFeeds = 4

// Feed is one subscription and the user its records belong to.
type Feed struct {
	Source ics.Source
	UserID string
	Kind   model.Kind
}

// Fetcher downloads a feed body. *ics.Fetcher implements it.
type Fetcher interface {
	FetchOne(ctx context.Context, src ics.Source) (ics.FetchResult, error)
}

// Sink receives the records of one (user, feed) pair. *store.Memory
// implements it.
type Sink interface {
	Replace(userID, sourceID string, recs []model.ScheduleRecord)
}

type Options struct {
	Location    *time.Location
	PastDays    int
	HorizonDays int
	// OnRefresh runs after every RunOnce that stored at least one feed.
	OnRefresh func()
}

type Refresher struct {
	fetcher Fetcher
	sink    Sink
	feeds   []Feed
	clock   clock.Clock
	opts    Options

	runMu sync.Mutex // serializes RunOnce

	cronMu sync.Mutex
	cron   *cron.Cron
}

func New(fetcher Fetcher, sink Sink, feeds []Feed, c clock.Clock, opts Options) *Refresher {
	if c == nil {
		c = clock.Real()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Refresher{fetcher: fetcher, sink: sink, feeds: feeds, clock: c, opts: opts}
}

// Window is the range of days feeds are expanded over, relative to today
// in the configured location.
func (r *Refresher) Window() datekey.Range {
	today := datekey.Today(r.clock.Now(), r.opts.Location)
	return datekey.Range{
		Start: today.AddDays(-r.opts.PastDays),
		End:   today.AddDays(r.opts.HorizonDays),
	}
}

// RunOnce refreshes every feed. A feed that fails keeps its previously
// stored records; all failures are joined into the returned error.
func (r *Refresher) RunOnce(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	started := r.clock.Now()
	window := r.Window()

	var (
		errMu  sync.Mutex
		errs   []error
		stored int
	)
	fail := func(err error) {
		errMu.Lock()
		errs = append(errs, err)
		errMu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFeeds)
	for _, feed := range r.feeds {
		feed := feed
		g.Go(func() error {
			res, err := r.fetcher.FetchOne(gctx, feed.Source)
			if err != nil {
				fail(fmt.Errorf("feed %s: %w", feed.Source.ID, err))
				return nil
			}
			recs, err := ics.FeedRecords(feed.Source, res.Body, window, r.opts.Location, feed.Kind, started)
			if err != nil {
				fail(fmt.Errorf("feed %s: %w", feed.Source.ID, err))
				return nil
			}
			r.sink.Replace(feed.UserID, feed.Source.ID, recs)

			errMu.Lock()
			stored++
			errMu.Unlock()
			appLog.Debug("feed stored", "id", feed.Source.ID, "user", feed.UserID, "records", len(recs), "from_cache", res.FromCache)
			return nil
		})
	}
	// Goroutines only report through fail.
	_ = g.Wait()

	if stored > 0 && r.opts.OnRefresh != nil {
		r.opts.OnRefresh()
	}

	err := errors.Join(errs...)
	if err != nil {
		appLog.Error("refresh finished with errors", err, "stored", stored, "failed", len(errs))
	} else {
		appLog.Info("refresh finished", "stored", stored, "window_start", window.Start, "window_end", window.End)
	}
	return err
}

// Start schedules RunOnce on schedule (standard 5-field cron, evaluated in the
// configured location) until ctx is done or Stop is called.
func (r *Refresher) Start(ctx context.Context, schedule string) error {
	c := cron.New(cron.WithLocation(r.opts.Location))
	_, err := c.AddFunc(schedule, func() {
		if err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			appLog.Warn("scheduled refresh had failures", "reason", err)
		}
	})
	if err != nil {
		return fmt.Errorf("refresh: schedule %q: %w", schedule, err)
	}

	r.cronMu.Lock()
	r.cron = c
	r.cronMu.Unlock()

	c.Start()
	appLog.Info("refresh scheduled", "cron", schedule, "feeds", len(r.feeds))

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	r.cronMu.Lock()
	c := r.cron
	r.cron = nil
	r.cronMu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

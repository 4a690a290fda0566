package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sjsage522/bestmuadata/helpers"
	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/logger"
)

// SessionReport is published once a session reaches a terminal state
type SessionReport struct {
	RunID      string           `json:"run_id"`
	SessionID  int64            `json:"session_id"`
	Mode       string           `json:"mode"`
	Status     string           `json:"status"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Stats      model.CrawlStats `json:"stats"`
	Error      string           `json:"error,omitempty"`
}

// run is the state of one session. stats is only touched from the goroutine
// that drives the run; workers report sub-results back to it.
type run struct {
	o       *Orchestrator
	mode    string
	runID   string
	session model.CrawlSession
	start   time.Time
	stats   model.CrawlStats
	errs    *helpers.ErrorCollector
	log     *logger.Logger
}

// record counts err against the run and keeps its message
func (r *run) record(scope string, err error) {
	r.stats.Errors++
	r.note(scope, err)
}

// note keeps the message of an error that is counted elsewhere
func (r *run) note(scope string, err error) {
	r.log.Warn().Err(err).Str("scope", scope).Msg("crawl error")
	r.errs.LogError(scope, err)
}

// execute starts a session, runs body and always finalizes the session,
// also when body panics.
func (o *Orchestrator) execute(ctx context.Context, mode string, body func(ctx context.Context, r *run) error) (model.CrawlStats, error) {
	runID := o.newRunID()
	session, err := o.store.StartSession(ctx, runID)
	if err != nil {
		return model.CrawlStats{}, fmt.Errorf("start %s crawl: %w", mode, err)
	}

	r := &run{
		o:       o,
		mode:    mode,
		runID:   runID,
		session: session,
		start:   o.now(),
		errs:    helpers.NewErrorCollector(o.cfg.ErrorLimit, o.errorLog),
		log: o.log.WithFields(logger.Fields{
			"run_id":     runID,
			"session_id": session.ID,
			"mode":       mode,
		}),
	}
	r.log.Info().Msg("crawl started")

	defer func() {
		if p := recover(); p != nil {
			r.finish(ctx, model.SessionFailed, fmt.Errorf("panic: %v", p))
			panic(p)
		}
	}()

	if err := body(ctx, r); err != nil {
		r.finish(ctx, model.SessionFailed, err)
		return r.stats, fmt.Errorf("%s crawl failed: %w", mode, err)
	}
	r.finish(ctx, model.SessionCompleted, nil)
	return r.stats, nil
}

// finish writes the terminal session state and publishes the report. It
// runs detached from ctx so a canceled run is still finalized.
func (r *run) finish(ctx context.Context, status string, runErr error) {
	ctx = context.WithoutCancel(ctx)
	finished := r.o.now()
	r.stats.DurationSeconds = finished.Sub(r.start).Seconds()

	errText := r.errs.String()
	if runErr != nil {
		if errText != "" {
			errText = runErr.Error() + "\n" + errText
		} else {
			errText = runErr.Error()
		}
	}

	if err := r.o.store.FinishSession(ctx, r.session.ID, status, r.stats, errText); err != nil {
		r.log.Error().Err(err).Msg("failed to finalize crawl session")
	}

	event := r.log.Info()
	if runErr != nil {
		event = r.log.Error().Err(runErr)
	}
	event.
		Str("status", status).
		Int("categories_found", r.stats.CategoriesFound).
		Int("products_found", r.stats.ProductsFound).
		Int("products_created", r.stats.ProductsCreated).
		Int("products_updated", r.stats.ProductsUpdated).
		Int("errors", r.stats.Errors).
		Float64("duration_seconds", r.stats.DurationSeconds).
		Msg("crawl finished")

	report := SessionReport{
		RunID:      r.runID,
		SessionID:  r.session.ID,
		Mode:       r.mode,
		Status:     status,
		StartedAt:  r.start,
		FinishedAt: finished,
		Stats:      r.stats,
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	r.o.publish(report)
}

func (o *Orchestrator) publish(report SessionReport) {
	if o.publisher == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		o.log.Error().Err(err).Msg("failed to encode session report")
		return
	}
	if err := o.publisher.Publish("session", data); err != nil {
		o.log.Warn().Err(err).Str("run_id", report.RunID).Msg("failed to publish session report")
		return
	}
	if err := o.publisher.TrimStreams(); err != nil {
		o.log.Warn().Err(err).Msg("failed to trim report stream")
	}
}

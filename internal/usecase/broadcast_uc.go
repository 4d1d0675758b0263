package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"telegram-bot-template/internal/domain/ports/adapter"
	"telegram-bot-template/internal/domain/ports/repository"
	"telegram-bot-template/internal/infra/metrics"
	"telegram-bot-template/internal/infra/worker"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Payload is the outbound broadcast content: plain text, or a photo by
// Telegram file ID with Text as its caption.
type Payload struct {
	Text    string
	PhotoID string
}

// Report aggregates per-recipient outcomes of one broadcast run. The job and
// its report live in memory only; nothing is persisted.
type Report struct {
	JobID       string
	Recipients  int
	Delivered   int
	Unreachable int
	Failed      int
	Elapsed     time.Duration

	mu sync.Mutex
}

func (r *Report) record(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch outcome {
	case outcomeDelivered:
		r.Delivered++
	case outcomeUnreachable:
		r.Unreachable++
	default:
		r.Failed++
	}
}

const (
	outcomeDelivered   = "delivered"
	outcomeUnreachable = "unreachable"
	outcomeFailed      = "failed"

	// Telegram allows roughly 30 messages per second; stay under it.
	sendInterval = time.Second / 25

	// Upper bound on how long a flood-wait pause is honored.
	maxFloodWait = 30 * time.Second
)

type BroadcastUseCase interface {
	// Broadcast sends the payload to every known user, one attempt per
	// recipient in registration order, and blocks until the run finishes.
	// Individual failures never abort the run.
	Broadcast(ctx context.Context, payload Payload) (*Report, error)
}

type broadcastUC struct {
	users repository.UserRepository
	bot   adapter.TelegramBotAdapter
	pool  *worker.Pool
	log   *zerolog.Logger
}

func NewBroadcastUseCase(
	users repository.UserRepository,
	bot adapter.TelegramBotAdapter,
	pool *worker.Pool,
	logger *zerolog.Logger,
) BroadcastUseCase {
	return &broadcastUC{users: users, bot: bot, pool: pool, log: logger}
}

func (uc *broadcastUC) Broadcast(ctx context.Context, payload Payload) (*Report, error) {
	// Snapshot the recipient set at invocation time.
	recipients, err := uc.users.List(ctx, repository.NoTX, 0, 0)
	if err != nil {
		uc.log.Error().Err(err).Msg("failed to fetch users for broadcast")
		return nil, err
	}

	report := &Report{
		JobID:      ulid.Make().String(),
		Recipients: len(recipients),
	}
	metrics.IncBroadcastRun()
	uc.log.Info().Str("job_id", report.JobID).Int("recipients", report.Recipients).Msg("broadcast started")

	start := time.Now()
	throttle := time.NewTicker(sendInterval)
	defer throttle.Stop()

	var wg sync.WaitGroup
	for _, user := range recipients {
		select {
		case <-ctx.Done():
			// Stop queuing; already-submitted sends still finish.
			uc.log.Warn().Str("job_id", report.JobID).Msg("broadcast canceled mid-run")
			wg.Wait()
			report.Elapsed = time.Since(start)
			return report, ctx.Err()
		case <-throttle.C:
		}

		tgID := user.ID
		wg.Add(1)
		task := func(ctx context.Context) error {
			defer wg.Done()
			// Tasks still queued when the run is canceled are not sent;
			// their recipients are accounted as failed.
			outcome := outcomeFailed
			if ctx.Err() == nil {
				outcome = uc.sendTo(ctx, tgID, payload)
			}
			report.record(outcome)
			metrics.IncBroadcastSend(outcome)
			return nil
		}
		if err := uc.pool.Submit(task); err != nil {
			wg.Done()
			report.record(outcomeFailed)
			metrics.IncBroadcastSend(outcomeFailed)
			uc.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to submit broadcast task")
		}
	}
	wg.Wait()

	report.Elapsed = time.Since(start)
	metrics.ObserveBroadcastDuration(report.Elapsed.Seconds())
	uc.log.Info().
		Str("job_id", report.JobID).
		Int("delivered", report.Delivered).
		Int("unreachable", report.Unreachable).
		Int("failed", report.Failed).
		Dur("elapsed", report.Elapsed).
		Msg("broadcast finished")
	return report, nil
}

// sendTo makes one delivery attempt and classifies the result. A flood-wait
// hint from Telegram is honored once with a single re-send; other transient
// failures are not retried within the run.
func (uc *broadcastUC) sendTo(ctx context.Context, tgID int64, payload Payload) string {
	err := uc.send(ctx, tgID, payload)

	var flood *adapter.FloodWaitError
	if errors.As(err, &flood) {
		wait := flood.RetryAfter
		if wait > maxFloodWait {
			wait = maxFloodWait
		}
		uc.log.Warn().Int64("tg_id", tgID).Dur("retry_after", wait).Msg("flood limit hit, backing off")
		select {
		case <-ctx.Done():
			return outcomeFailed
		case <-time.After(wait):
		}
		err = uc.send(ctx, tgID, payload)
	}

	switch {
	case err == nil:
		return outcomeDelivered
	case errors.Is(err, adapter.ErrRecipientUnreachable):
		// Expected steady-state: the user blocked the bot or is gone.
		return outcomeUnreachable
	default:
		uc.log.Warn().Err(err).Int64("tg_id", tgID).Msg("broadcast send failed")
		return outcomeFailed
	}
}

func (uc *broadcastUC) send(ctx context.Context, tgID int64, payload Payload) error {
	if payload.PhotoID != "" {
		return uc.bot.SendPhoto(ctx, tgID, payload.PhotoID, payload.Text)
	}
	return uc.bot.SendMessage(ctx, tgID, payload.Text)
}

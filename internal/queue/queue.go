// Package queue persists write requests made while offline and replays them
// in FIFO order once connectivity returns. A flush runs a bounded number of
// rounds and gives up early when it stops making progress, so a permanently
// rejected request cannot spin the loop forever.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/fireguard/internal/common"
	"github.com/dmitrijs2005/fireguard/internal/connectivity"
	"github.com/dmitrijs2005/fireguard/internal/fetch"
	"github.com/dmitrijs2005/fireguard/internal/logging"
	"github.com/dmitrijs2005/fireguard/internal/models"
	"github.com/dmitrijs2005/fireguard/internal/store"
)

const (
	DefaultFlushRounds = 6
	DefaultRoundDelay  = 500 * time.Millisecond
)

var errQueueNotDrained = errors.New("queue not drained")

type Queue struct {
	store    store.Store
	monitor  connectivity.Monitor
	replayer Replayer
	log      logging.Logger

	rounds     int
	roundDelay time.Duration
	flushing   atomic.Bool
	now        func() time.Time
}

// Replayer re-issues a previously queued write request.
type Replayer interface {
	Replay(ctx context.Context, req models.QueuedWriteRequest) error
}

func New(st store.Store, monitor connectivity.Monitor, replayer Replayer, log logging.Logger, rounds int, roundDelay time.Duration) *Queue {
	if rounds <= 0 {
		rounds = DefaultFlushRounds
	}
	if roundDelay <= 0 {
		roundDelay = DefaultRoundDelay
	}
	return &Queue{
		store:      st,
		monitor:    monitor,
		replayer:   replayer,
		log:        log,
		rounds:     rounds,
		roundDelay: roundDelay,
		now:        time.Now,
	}
}

// Enqueue appends req to the persisted queue, assigning an id and a queued-at
// timestamp when missing, and returns the stored request.
func (q *Queue) Enqueue(ctx context.Context, req models.QueuedWriteRequest) (models.QueuedWriteRequest, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.QueuedAt == 0 {
		req.QueuedAt = q.now().UnixMilli()
	}

	pending, err := q.load(ctx)
	if err != nil {
		return models.QueuedWriteRequest{}, err
	}
	pending = append(pending, req)

	if err := q.save(ctx, pending); err != nil {
		return models.QueuedWriteRequest{}, err
	}
	q.log.Info(ctx, "queued offline write", "id", req.ID, "method", req.Method, "target", req.Target)
	return req, nil
}

// Pending returns the queued requests in replay order.
func (q *Queue) Pending(ctx context.Context) ([]models.QueuedWriteRequest, error) {
	return q.load(ctx)
}

// Flush replays the queue in FIFO order, in up to the configured number of
// rounds, and returns the number of requests still queued afterwards. A
// round that makes no progress, or starts offline, ends the flush early;
// leftovers stay queued for the next flush. Only one flush may run at a time.
func (q *Queue) Flush(ctx context.Context) (int, error) {
	if !q.flushing.CompareAndSwap(false, true) {
		return 0, common.ErrFlushInProgress
	}
	defer q.flushing.Store(false)

	backoff := retry.WithMaxRetries(uint64(q.rounds-1), retry.NewConstant(q.roundDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		replayed, remaining, err := q.flushRound(ctx)
		if err != nil {
			return err
		}
		if remaining > 0 && replayed > 0 {
			return retry.RetryableError(errQueueNotDrained)
		}
		// drained, offline, or stuck: either way this flush is over
		return nil
	})

	pending, loadErr := q.load(ctx)
	if err != nil && !errors.Is(err, errQueueNotDrained) {
		return len(pending), err
	}
	if loadErr != nil {
		return 0, loadErr
	}
	return len(pending), nil
}

// flushRound makes one pass over the queue. Every attempted request gets its
// attempts counter bumped whether or not the replay succeeded; successes are
// dropped from the queue, and an offline failure aborts the pass so the rest
// of the queue is not burned against a dead link.
func (q *Queue) flushRound(ctx context.Context) (replayed, remaining int, err error) {
	if !q.monitor.Online() {
		return 0, 0, nil
	}

	pending, err := q.load(ctx)
	if err != nil {
		return 0, 0, err
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	var survivors []models.QueuedWriteRequest
	for i := range pending {
		select {
		case <-ctx.Done():
			survivors = append(survivors, pending[i:]...)
			if saveErr := q.save(ctx, survivors); saveErr != nil {
				q.log.Warn(ctx, "failed to persist queue", "err", saveErr)
			}
			return replayed, len(survivors), ctx.Err()
		default:
		}

		req := pending[i]
		req.Attempts++

		replayErr := q.replayer.Replay(ctx, req)
		if replayErr == nil {
			replayed++
			q.log.Info(ctx, "replayed offline write", "id", req.ID, "attempts", req.Attempts)
			continue
		}

		survivors = append(survivors, req)
		q.log.Debug(ctx, "replay failed", "id", req.ID, "attempts", req.Attempts, "err", replayErr)

		if errors.Is(replayErr, fetch.ErrOffline) {
			// keep the untouched tail and stop the pass
			survivors = append(survivors, pending[i+1:]...)
			break
		}
	}

	if err := q.save(ctx, survivors); err != nil {
		return replayed, len(survivors), err
	}
	return replayed, len(survivors), nil
}

func (q *Queue) load(ctx context.Context) ([]models.QueuedWriteRequest, error) {
	raw, err := q.store.Get(ctx, store.OfflineQueueKey())
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var pending []models.QueuedWriteRequest
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		// a corrupt queue is unrecoverable; start over rather than wedge
		q.log.Warn(ctx, "resetting corrupt offline queue", "err", err)
		return nil, nil
	}
	return pending, nil
}

func (q *Queue) save(ctx context.Context, pending []models.QueuedWriteRequest) error {
	if len(pending) == 0 {
		err := q.store.Remove(ctx, store.OfflineQueueKey())
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return nil
	}

	b, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to encode offline queue: %w", err)
	}
	return q.store.Set(ctx, store.OfflineQueueKey(), string(b))
}

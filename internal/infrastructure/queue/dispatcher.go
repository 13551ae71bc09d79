package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/civicbeacon/reputation-system/internal/api/metrics"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes vote submissions to a fixed set of workers using
// consistent hashing on the citizen:entity pair, so the two writes for the
// same pair can never race and upsert order is preserved.
type Dispatcher struct {
	workers []chan ports.SubmitVoteInput
	votes   ports.VoteService
	ranking ports.RankingService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, votes ports.VoteService, ranking ports.RankingService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.SubmitVoteInput, numWorkers),
		votes:   votes,
		ranking: ranking,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.SubmitVoteInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a submission to the worker responsible for its vote key.
// The call never blocks; when the worker's buffer is full the submission is
// dropped and logged, so a stalled shard cannot hold HTTP handlers hostage.
func (d *Dispatcher) Enqueue(in ports.SubmitVoteInput) {
	shard := d.shardIndex(in.CitizenID + ":" + in.EntityID)
	select {
	case d.workers[shard] <- in:
	default:
		metrics.VotesProcessedTotal.WithLabelValues("dropped", "false").Inc()
		d.log.Warn().
			Str("citizen_id", in.CitizenID).
			Str("entity_id", in.EntityID).
			Int("worker_id", shard).
			Msg("vote dropped, worker queue full")
	}
}

// EnqueueBatch enqueues multiple submissions preserving per-pair ordering.
func (d *Dispatcher) EnqueueBatch(inputs []ports.SubmitVoteInput) {
	for _, in := range inputs {
		d.Enqueue(in)
	}
}

// Depth returns the total number of submissions waiting across all workers.
func (d *Dispatcher) Depth() int {
	var n int
	for _, ch := range d.workers {
		n += len(ch)
	}
	return n
}

// shardIndex maps a vote key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.SubmitVoteInput) {
	for {
		select {
		case <-ctx.Done():
			return
		case in, ok := <-ch:
			if !ok {
				return
			}
			res, err := d.votes.Submit(ctx, in)
			if err != nil {
				d.log.Error().Err(err).
					Str("citizen_id", in.CitizenID).
					Str("entity_id", in.EntityID).
					Int("worker_id", id).
					Msg("vote processing failed")
				continue
			}
			outcome := "counted"
			if !res.IsCounted {
				outcome = "shadow"
				metrics.VotesShadowedTotal.WithLabelValues(res.ShadowReason).Inc()
			}
			metrics.VotesProcessedTotal.WithLabelValues(outcome, strconv.FormatBool(res.WasUpdated)).Inc()
			if !res.IsCounted {
				continue
			}
			start := time.Now()
			if _, err := d.ranking.RecomputeEntity(ctx, in.EntityID); err != nil {
				metrics.RecomputeDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
				d.log.Error().Err(err).
					Str("entity_id", in.EntityID).
					Int("worker_id", id).
					Msg("reputation recompute failed")
				continue
			}
			metrics.RecomputeDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
		}
	}
}

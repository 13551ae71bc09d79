package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

type stubVoteService struct {
	submitted chan ports.SubmitVoteInput
}

func (s *stubVoteService) Submit(_ context.Context, in ports.SubmitVoteInput) (*ports.VoteResult, error) {
	if s.submitted != nil {
		s.submitted <- in
	}
	return &ports.VoteResult{Success: true, CitizenID: in.CitizenID, EntityID: in.EntityID, IsCounted: true}, nil
}

type stubRankingService struct {
	recomputed chan string
}

func (s *stubRankingService) Score(_ context.Context, _ int, _, _ float64, _ bool) ports.ScoreBreakdown {
	return ports.ScoreBreakdown{}
}

func (s *stubRankingService) Rank(_ context.Context, _ []*domain.Entity) []ports.RankedEntity {
	return nil
}

func (s *stubRankingService) RecomputeEntity(_ context.Context, entityID string) (*ports.ScoreBreakdown, error) {
	if s.recomputed != nil {
		s.recomputed <- entityID
	}
	return &ports.ScoreBreakdown{}, nil
}

func TestDispatcher_ShardIsDeterministic(t *testing.T) {
	d := NewDispatcher(4, nil, nil, zerolog.Nop())

	first := d.shardIndex("cit_1:ent_1")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("cit_1:ent_1"); got != first {
			t.Fatalf("shard index changed between calls: %d vs %d", first, got)
		}
	}
	if first < 0 || first >= 4 {
		t.Fatalf("shard index out of range: %d", first)
	}
}

// A shard whose worker has stalled must not stall the callers too. Past
// capacity the submission is dropped; Enqueue always returns.
func TestDispatcher_EnqueueNeverBlocksOnFullShard(t *testing.T) {
	d := NewDispatcher(1, nil, nil, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < channelBuffer+10; i++ {
			d.Enqueue(ports.SubmitVoteInput{CitizenID: "cit_1", EntityID: "ent_1"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full worker queue")
	}

	if got := d.Depth(); got != channelBuffer {
		t.Fatalf("expected depth %d after overflow, got %d", channelBuffer, got)
	}
}

func TestDispatcher_EnqueueBatchPreservesAllRows(t *testing.T) {
	d := NewDispatcher(4, nil, nil, zerolog.Nop())

	inputs := make([]ports.SubmitVoteInput, 12)
	for i := range inputs {
		inputs[i] = ports.SubmitVoteInput{
			CitizenID: fmt.Sprintf("cit_%d", i),
			EntityID:  "ent_1",
		}
	}
	d.EnqueueBatch(inputs)

	if got := d.Depth(); got != len(inputs) {
		t.Fatalf("expected depth %d, got %d", len(inputs), got)
	}
}

func TestDispatcher_WorkerProcessesAndRecomputes(t *testing.T) {
	votes := &stubVoteService{submitted: make(chan ports.SubmitVoteInput, 1)}
	ranking := &stubRankingService{recomputed: make(chan string, 1)}
	d := NewDispatcher(2, votes, ranking, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(ports.SubmitVoteInput{CitizenID: "cit_1", EntityID: "ent_1"})

	select {
	case in := <-votes.submitted:
		if in.CitizenID != "cit_1" || in.EntityID != "ent_1" {
			t.Fatalf("unexpected submission: %+v", in)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker never processed the submission")
	}

	select {
	case entityID := <-ranking.recomputed:
		if entityID != "ent_1" {
			t.Fatalf("unexpected recompute target: %s", entityID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("counted vote never triggered a recompute")
	}
}

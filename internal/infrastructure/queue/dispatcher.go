package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pmdesk/pmdesk/internal/api/metrics"
	"github.com/pmdesk/pmdesk/internal/core/domain"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// Inviter adds one member to a team.
type Inviter interface {
	AddTeamMember(ctx context.Context, in domain.Invite) (*domain.Team, error)
}

type job struct {
	index  int
	invite domain.Invite
}

// Dispatcher fans invites out to a fixed set of workers, sharded by team id
// so invites to the same team are sent one at a time in input order.
type Dispatcher struct {
	numWorkers int
	inviter    Inviter
	log        zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, inviter Inviter, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	return &Dispatcher{numWorkers: numWorkers, inviter: inviter, log: log}
}

// Run sends every invite and returns one result per invite, in input order.
// Invites not sent because ctx ended carry ctx's error.
func (d *Dispatcher) Run(ctx context.Context, invites []domain.Invite) []domain.InviteResult {
	results := make([]domain.InviteResult, len(invites))
	done := make([]bool, len(invites))
	for i, inv := range invites {
		results[i] = domain.InviteResult{TeamID: inv.TeamID, Email: inv.Email}
	}

	workers := make([]chan job, d.numWorkers)
	var wg sync.WaitGroup
	for i := range workers {
		workers[i] = make(chan job, channelBuffer)
		wg.Add(1)
		go func(id int, ch <-chan job) {
			defer wg.Done()
			d.runWorker(ctx, id, ch, results, done)
		}(i, workers[i])
	}

enqueue:
	for i, inv := range invites {
		shard := d.shardIndex(inv.TeamID)
		select {
		case workers[shard] <- job{index: i, invite: inv}:
			metrics.InviteQueueDepth.WithLabelValues(strconv.Itoa(shard)).Set(float64(len(workers[shard])))
		case <-ctx.Done():
			break enqueue
		}
	}
	for _, ch := range workers {
		close(ch)
	}
	wg.Wait()

	for i := range results {
		if !done[i] {
			results[i].Err = ctx.Err()
		}
		if results[i].Err != nil {
			results[i].Error = results[i].Err.Error()
		}
	}
	return results
}

// shardIndex maps a team id deterministically to a worker index.
func (d *Dispatcher) shardIndex(teamID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(teamID, 10)))
	return int(h.Sum32() % uint32(d.numWorkers))
}

// runWorker owns the slots of results for the jobs it receives.
func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan job, results []domain.InviteResult, done []bool) {
	label := strconv.Itoa(id)
	defer metrics.InviteQueueDepth.WithLabelValues(label).Set(0)
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-ch:
			if !ok {
				return
			}
			metrics.InviteQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			_, err := d.inviter.AddTeamMember(ctx, j.invite)
			results[j.index].Err = err
			done[j.index] = true
			if err != nil {
				metrics.InvitesTotal.WithLabelValues("failure").Inc()
				d.log.Error().Err(err).
					Int64("team_id", j.invite.TeamID).
					Str("email", j.invite.Email).
					Int("worker_id", id).
					Msg("team invite failed")
				continue
			}
			metrics.InvitesTotal.WithLabelValues("success").Inc()
		}
	}
}

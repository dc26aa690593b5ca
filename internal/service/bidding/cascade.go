package bidding

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lrazine99/purple-dog-sub000/internal/domain/bid"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/errors"
	"github.com/lrazine99/purple-dog-sub000/internal/domain/values"
)

// maxCascadeRounds bounds the fixed-point loop. The leading amount strictly
// increases each escalation and is capped by the highest proxy ceiling, so
// the bound is only a guard against ledger corruption.
const maxCascadeRounds = 1000

// cascadeOutcome describes the settled state after proxy resolution
type cascadeOutcome struct {
	steps       int
	leader      *bid.Bid
	nearCeiling []*bid.Bid
}

// cascadeResolver synthesizes counter-bids from standing proxy bids until a
// stable leader emerges. It always runs inside the placement transaction.
type cascadeResolver struct {
	bids   BidRepository
	logger *slog.Logger
}

func newCascadeResolver(bids BidRepository, logger *slog.Logger) *cascadeResolver {
	return &cascadeResolver{bids: bids, logger: logger}
}

// Resolve iterates one escalation at a time: each pass the strongest standing
// proxy (highest ceiling, earliest registration) that can still respond
// counter-bids one tier raise above the leading amount. When two proxies
// share a ceiling the earlier registration takes the lead at that ceiling.
// The loop terminates because every escalation strictly raises the leading
// amount toward the highest ceiling, and a ceiling take-over strictly
// improves registration priority.
func (r *cascadeResolver) Resolve(ctx context.Context, itemID uuid.UUID, leader *bid.Bid) (*cascadeOutcome, error) {
	out := &cascadeOutcome{leader: leader}

	for out.steps < maxCascadeRounds {
		candidates, err := r.bids.ActiveProxyBids(ctx, itemID)
		if err != nil {
			return nil, err
		}

		next, err := r.escalateOnce(ctx, leader, candidates)
		if err != nil {
			return nil, err
		}
		if next == nil {
			break
		}
		leader = next
		out.leader = next
		out.steps++
	}

	if out.steps >= maxCascadeRounds {
		r.logger.Error("cascade round bound reached, ledger may be inconsistent", "item_id", itemID)
		return nil, errors.NewInternalError("auto-bid cascade did not settle")
	}

	if err := r.collectNearCeiling(ctx, itemID, out); err != nil {
		return nil, err
	}
	return out, nil
}

// escalateOnce performs at most one escalation and returns the new leader,
// or nil at the fixed point.
func (r *cascadeResolver) escalateOnce(ctx context.Context, leader *bid.Bid, candidates []*bid.Bid) (*bid.Bid, error) {
	raise := bid.NextRaise(leader.Amount)

	for _, c := range candidates {
		if c.UserID == leader.UserID {
			continue
		}
		ceiling := c.Ceiling()

		if !raise.GreaterThan(ceiling) {
			return r.counterBid(ctx, leader, c.UserID, raise, ceiling)
		}

		// Equal ceilings: both proxies are exhausted at the same amount and
		// the earlier registration wins it.
		if ceiling.Equal(leader.Amount) && leader.Type == bid.TypeAuto {
			takeover, err := r.hasPriority(ctx, leader, c)
			if err != nil {
				return nil, err
			}
			if takeover {
				return r.counterBid(ctx, leader, c.UserID, ceiling, ceiling)
			}
		}
	}
	return nil, nil
}

// counterBid displaces the current leader and installs the proxy's synthetic
// counter-bid as the new leader. A displaced auto bid keeps its standing
// ceiling and re-enters candidacy; a displaced manual bid is spent and
// retires.
func (r *cascadeResolver) counterBid(ctx context.Context, leader *bid.Bid, userID uuid.UUID, amount, ceiling values.Money) (*bid.Bid, error) {
	displace := r.bids.Supersede
	if leader.Type == bid.TypeAuto {
		displace = r.bids.MarkOutbid
	}
	if err := displace(ctx, leader.ID); err != nil {
		return nil, err
	}
	counter := bid.NewCounterBid(leader.ItemID, userID, amount, ceiling)
	if err := r.bids.Insert(ctx, counter); err != nil {
		return nil, err
	}
	return counter, nil
}

func withinOneStep(ceiling, leading, step values.Money) bool {
	gap, err := ceiling.Sub(leading)
	if err != nil {
		return false
	}
	return !gap.IsNegative() && !gap.GreaterThan(step)
}

// hasPriority reports whether the candidate's user registered their proxy
// before the current leader's user registered theirs.
func (r *cascadeResolver) hasPriority(ctx context.Context, leader, c *bid.Bid) (bool, error) {
	leaderReg, err := r.bids.EarliestProxyRegistration(ctx, leader.ItemID, leader.UserID)
	if err != nil {
		return false, err
	}
	if leaderReg == nil {
		return true, nil
	}
	candidateReg, err := r.bids.EarliestProxyRegistration(ctx, c.ItemID, c.UserID)
	if err != nil {
		return false, err
	}
	if candidateReg == nil {
		candidateReg = c
	}
	return candidateReg.CreatedAt.Before(leaderReg.CreatedAt), nil
}

// collectNearCeiling gathers every active proxy whose remaining headroom is
// at most one increment step, including the leader itself.
func (r *cascadeResolver) collectNearCeiling(ctx context.Context, itemID uuid.UUID, out *cascadeOutcome) error {
	leading := out.leader.Amount
	step := bid.IncrementStep(leading)

	if out.leader.Type == bid.TypeAuto {
		if withinOneStep(out.leader.Ceiling(), leading, step) {
			out.nearCeiling = append(out.nearCeiling, out.leader)
		}
	}

	candidates, err := r.bids.ActiveProxyBids(ctx, itemID)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		if c.UserID == out.leader.UserID {
			continue
		}
		if withinOneStep(c.Ceiling(), leading, step) {
			out.nearCeiling = append(out.nearCeiling, c)
		}
	}
	return nil
}

package coursechat

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/learny-backend/internal/pkg/errors"
)

// ReconcileResult describes one pass of goal reconciliation.
type ReconcileResult struct {
	Goal           *GoalRange  `json:"goal,omitempty"`
	SelectedBefore int         `json:"selected_before"`
	Deficit        int         `json:"deficit"`
	Added          []uuid.UUID `json:"added"`
	// Failed is set when the generator could not fill the deficit.
	Failed bool `json:"failed"`
}

// Ready reports whether the selection already met the goal before the pass.
func (r ReconcileResult) Ready() bool { return r.Deficit <= 0 }

func (r ReconcileResult) outcome() string {
	switch {
	case r.Goal == nil:
		return "no_goal"
	case r.Deficit <= 0:
		return "satisfied"
	case r.Failed:
		return "failed"
	case len(r.Added) < r.Deficit:
		return "partial"
	default:
		return "filled"
	}
}

// Reconcile tops the selection up to the goal's minimum. It runs after every
// operation queued before it and reports what, if anything, was added.
func (c *Conversation) Reconcile(ctx context.Context) (ReconcileResult, error) {
	c.mu.Lock()
	err := c.checkOpenLocked()
	c.mu.Unlock()
	if err != nil {
		return ReconcileResult{}, err
	}

	var res ReconcileResult
	if !c.queue.await(ctx, func(wctx context.Context) { res = c.reconcile(wctx) }) {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, pkgerrors.ErrConversationClosed
	}
	return res, nil
}

// Validate is Reconcile under the name the finish flow uses.
func (c *Conversation) Validate(ctx context.Context) (ReconcileResult, error) {
	return c.Reconcile(ctx)
}

// reconcile must run on the conversation worker.
func (c *Conversation) reconcile(ctx context.Context) ReconcileResult {
	var (
		res       ReconcileResult
		titles    []string
		loadingID uuid.UUID
		proceed   bool
	)
	c.mu.Lock()
	if c.goal != nil && c.phase != PhaseCancelled {
		g := *c.goal
		res.Goal = &g
		res.SelectedBefore = c.pool.selectedCount()
		res.Deficit = max(g.Min-res.SelectedBefore, 0)
		if res.Deficit > 0 {
			c.appendTurn(RoleAssistant, PlainText{Text: shortfallText(g.Min, res.SelectedBefore, res.Deficit)})
			loadingID = c.appendTurn(RoleAssistant, LoadingIndicator{Label: loadingReconcile}).ID
			titles = c.pool.titles()
			c.changed()
			proceed = true
		}
	}
	c.mu.Unlock()

	if !proceed {
		c.metrics.ObserveReconcile(res.outcome(), 0)
		return res
	}

	batch := c.gateway.FulfillPlan(ctx, c.topic, titles, res.Deficit)
	if ctx.Err() != nil {
		res.Failed = true
		return res
	}
	res.Failed = batch.Failed()

	added := batch.Suggestions
	if len(added) > res.Deficit {
		added = added[:res.Deficit]
	}
	c.apply(func() {
		c.tr.removeID(loadingID)
		res.Added = c.pool.append(added, true)
		c.appendTurn(RoleAssistant, PlainText{Text: addedText(len(res.Added))})
	})

	c.log.Info("Goal reconciled",
		"goal_min", res.Goal.Min,
		"selected_before", res.SelectedBefore,
		"deficit", res.Deficit,
		"added", len(res.Added),
	)
	c.metrics.ObserveReconcile(res.outcome(), len(res.Added))
	return res
}

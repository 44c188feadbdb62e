package bracket

import (
	"time"

	"github.com/tradeforge/marginbt/internal/types"
	"github.com/tradeforge/marginbt/pkg/errors"
)

type GroupState string

const (
	// GroupStatePending means the entry has not filled yet; exits are dormant.
	GroupStatePending GroupState = "PENDING"
	// GroupStateParentFilled means the entry filled and both exits are live.
	GroupStateParentFilled GroupState = "PARENT_FILLED"
	// GroupStateResolved means one exit filled and its sibling was cancelled.
	GroupStateResolved GroupState = "RESOLVED"
	// GroupStateExpired means the entry did not fill within the validity
	// window and every leg was cancelled.
	GroupStateExpired GroupState = "EXPIRED"
	// GroupStateCancelled means the group was cancelled externally.
	GroupStateCancelled GroupState = "CANCELLED"
)

// Group tracks one bracket's one-cancels-other lifecycle. Exactly one of
// the two exit legs may ever fill; the sibling is cancelled atomically with
// that fill.
type Group struct {
	ID    string
	State GroupState

	Entry      types.OrderSpec
	StopLoss   types.OrderSpec
	TakeProfit types.OrderSpec

	legStatus map[types.LegRole]types.OrderStatus
}

// NewGroup builds a Group from an entry spec carrying exactly two children
// with stop-loss and take-profit roles.
func NewGroup(entry types.OrderSpec) (*Group, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if entry.Role != types.LegRoleEntry || len(entry.Children) != 2 {
		return nil, errors.New(errors.ErrCodeInvalidBracket, "a bracket needs an entry with exactly two exit legs")
	}

	group := &Group{
		ID:    entry.GroupID,
		State: GroupStatePending,
		Entry: entry,
		legStatus: map[types.LegRole]types.OrderStatus{
			types.LegRoleEntry:      types.OrderStatusPending,
			types.LegRoleStopLoss:   types.OrderStatusPending,
			types.LegRoleTakeProfit: types.OrderStatusPending,
		},
	}

	for _, child := range entry.Children {
		switch child.Role {
		case types.LegRoleStopLoss:
			group.StopLoss = child
		case types.LegRoleTakeProfit:
			group.TakeProfit = child
		default:
			return nil, errors.Newf(errors.ErrCodeInvalidBracket, "unexpected child role: %s", child.Role)
		}
	}

	if group.StopLoss.ID == "" || group.TakeProfit.ID == "" {
		return nil, errors.New(errors.ErrCodeInvalidBracket, "bracket requires one stop-loss and one take-profit leg")
	}

	return group, nil
}

// LegStatus returns the lifecycle status of one leg.
func (g *Group) LegStatus(role types.LegRole) types.OrderStatus {
	return g.legStatus[role]
}

// ActiveLegs returns the legs the venue should evaluate against market
// data: the entry while pending, both exits once the entry filled.
func (g *Group) ActiveLegs() []types.OrderSpec {
	switch g.State {
	case GroupStatePending:
		return []types.OrderSpec{g.Entry}
	case GroupStateParentFilled:
		return []types.OrderSpec{g.StopLoss, g.TakeProfit}
	default:
		return nil
	}
}

// FillEntry transitions Pending -> ParentFilled, activating both exits.
func (g *Group) FillEntry() error {
	if g.State != GroupStatePending {
		return errors.Newf(errors.ErrCodeInvalidBracket, "entry fill in state %s", g.State)
	}

	g.State = GroupStateParentFilled
	g.legStatus[types.LegRoleEntry] = types.OrderStatusFilled

	return nil
}

// FillExit transitions ParentFilled -> Resolved. The sibling leg is
// cancelled atomically with the fill; its role is returned so the venue can
// propagate the cancellation.
func (g *Group) FillExit(role types.LegRole) (types.LegRole, error) {
	if g.State != GroupStateParentFilled {
		return "", errors.Newf(errors.ErrCodeInvalidBracket, "exit fill in state %s", g.State)
	}

	var sibling types.LegRole

	switch role {
	case types.LegRoleStopLoss:
		sibling = types.LegRoleTakeProfit
	case types.LegRoleTakeProfit:
		sibling = types.LegRoleStopLoss
	default:
		return "", errors.Newf(errors.ErrCodeInvalidBracket, "leg %s is not an exit", role)
	}

	g.State = GroupStateResolved
	g.legStatus[role] = types.OrderStatusFilled
	g.legStatus[sibling] = types.OrderStatusCancelled

	return sibling, nil
}

// ExpireIfDue cancels the whole bracket when the entry is still pending
// past its validity window. Children never outlive an unfilled parent.
// Returns true if the group expired on this call.
func (g *Group) ExpireIfDue(now time.Time) bool {
	if g.State != GroupStatePending {
		return false
	}

	if g.Entry.ExpiresAt.IsNone() {
		return false
	}

	if now.Before(g.Entry.ExpiresAt.Unwrap()) {
		return false
	}

	g.State = GroupStateExpired
	g.legStatus[types.LegRoleEntry] = types.OrderStatusExpired
	g.legStatus[types.LegRoleStopLoss] = types.OrderStatusCancelled
	g.legStatus[types.LegRoleTakeProfit] = types.OrderStatusCancelled

	return true
}

// Cancel aborts the group from any live state.
func (g *Group) Cancel() {
	if g.State == GroupStateResolved || g.State == GroupStateExpired {
		return
	}

	if g.legStatus[types.LegRoleEntry] == types.OrderStatusPending {
		g.legStatus[types.LegRoleEntry] = types.OrderStatusCancelled
	}

	g.legStatus[types.LegRoleStopLoss] = types.OrderStatusCancelled
	g.legStatus[types.LegRoleTakeProfit] = types.OrderStatusCancelled
	g.State = GroupStateCancelled
}

// IsLive reports whether the group still has legs the venue must watch.
func (g *Group) IsLive() bool {
	return g.State == GroupStatePending || g.State == GroupStateParentFilled
}

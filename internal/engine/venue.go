package engine

import (
	"time"

	"github.com/tradeforge/marginbt/internal/bracket"
	"github.com/tradeforge/marginbt/internal/commission"
	"github.com/tradeforge/marginbt/internal/logger"
	"github.com/tradeforge/marginbt/internal/types"
	"github.com/tradeforge/marginbt/pkg/errors"
	"go.uber.org/zap"
)

// SimulatedVenue fills bracket orders against bars and keeps the account.
// One position at a time; the strategy layer only signals while flat, and the
// venue enforces it. Margin is locked against cash when an entry fills and
// released on the closing fill. Short interest accrues as an advisory figure
// only; it never touches cash.
type SimulatedVenue struct {
	logger *logger.Logger
	model  commission.CommissionModel
	ledger *BacktestState

	cash            float64
	realizedPnL     float64
	totalFees       float64
	interestAccrued float64
	marginUsed      float64

	position        types.Position
	entryCommission float64

	groups []*bracket.Group

	lastBarTime time.Time
	hasLastBar  bool
}

func NewSimulatedVenue(initialCapital float64, model commission.CommissionModel, ledger *BacktestState, logger *logger.Logger) (*SimulatedVenue, error) {
	if initialCapital <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "initial capital must be positive: %f", initialCapital)
	}

	if model == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "commission model is required")
	}

	return &SimulatedVenue{
		logger: logger,
		model:  model,
		ledger: ledger,
		cash:   initialCapital,
	}, nil
}

// SubmitBracket registers a bracket group. The entry leg becomes live
// immediately; the exits stay dormant until the entry fills.
func (v *SimulatedVenue) SubmitBracket(entry types.OrderSpec, at time.Time) error {
	group, err := bracket.NewGroup(entry)
	if err != nil {
		return err
	}

	v.groups = append(v.groups, group)

	for _, spec := range []types.OrderSpec{group.Entry, group.StopLoss, group.TakeProfit} {
		if err := v.recordOrderEvent(spec, types.OrderStatusPending, at, 0); err != nil {
			return err
		}
	}

	v.logger.Debug("bracket submitted",
		zap.String("group_id", group.ID),
		zap.Float64("entry", group.Entry.TriggerPrice),
		zap.Float64("stop", group.StopLoss.TriggerPrice),
		zap.Float64("target", group.TakeProfit.TriggerPrice),
	)

	return nil
}

// HasPendingOrders reports whether any bracket still has live legs.
func (v *SimulatedVenue) HasPendingOrders() bool {
	for _, group := range v.groups {
		if group.IsLive() {
			return true
		}
	}

	return false
}

// Position returns the current open position.
func (v *SimulatedVenue) Position() types.Position {
	return v.position
}

// AccountInfo returns the account snapshot marked at the given price.
func (v *SimulatedVenue) AccountInfo(markPrice float64) types.AccountInfo {
	unrealized := 0.0
	if !v.position.IsFlat() {
		unrealized = v.position.UnrealizedPnL(markPrice)
	}

	return types.AccountInfo{
		Cash:            v.cash,
		Equity:          v.cash + unrealized,
		MarginUsed:      v.marginUsed,
		RealizedPnL:     v.realizedPnL,
		UnrealizedPnL:   unrealized,
		TotalFees:       v.totalFees,
		InterestAccrued: v.interestAccrued,
	}
}

// OnBar advances the venue by one bar: accrue interest, expire stale
// brackets, then evaluate every live leg against the bar range. Returns the
// round trips that closed on this bar.
func (v *SimulatedVenue) OnBar(bar types.MarketData) ([]types.ClosedTrade, error) {
	if v.hasLastBar && v.position.IsShort() {
		days := bar.Time.Sub(v.lastBarTime).Hours() / 24
		v.interestAccrued += v.model.Interest(v.position.Size, bar.Close, days)
	}

	v.lastBarTime = bar.Time
	v.hasLastBar = true

	var closed []types.ClosedTrade

	for _, group := range v.groups {
		if group.ExpireIfDue(bar.Time) {
			if err := v.recordExpiry(group, bar.Time); err != nil {
				return nil, err
			}

			continue
		}

		if !group.IsLive() {
			continue
		}

		trade, err := v.evaluateGroup(group, bar)
		if err != nil {
			return nil, err
		}

		if trade != nil {
			closed = append(closed, *trade)
		}
	}

	v.pruneGroups()

	return closed, nil
}

// evaluateGroup tries to fill the group's live legs against the bar. The
// stop-loss is evaluated before the take-profit: when a bar spans both
// prices the worse outcome is assumed.
func (v *SimulatedVenue) evaluateGroup(group *bracket.Group, bar types.MarketData) (*types.ClosedTrade, error) {
	if group.State == bracket.GroupStatePending {
		price, ok := stopFillPrice(group.Entry.Side, group.Entry.TriggerPrice, bar)
		if !ok {
			return nil, nil
		}

		if !v.position.IsFlat() {
			group.Cancel()
			if err := v.recordCancellation(group, bar.Time); err != nil {
				return nil, err
			}

			v.logger.Warn("entry triggered with a position already open, bracket cancelled",
				zap.String("group_id", group.ID))

			return nil, nil
		}

		if err := v.fillEntry(group, price, bar.Time); err != nil {
			return nil, err
		}

		return nil, nil
	}

	if price, ok := stopFillPrice(group.StopLoss.Side, group.StopLoss.TriggerPrice, bar); ok {
		return v.fillExit(group, group.StopLoss, types.LegRoleStopLoss, price, bar.Time, false)
	}

	if price, ok := limitFillPrice(group.TakeProfit.Side, group.TakeProfit.TriggerPrice, bar); ok {
		return v.fillExit(group, group.TakeProfit, types.LegRoleTakeProfit, price, bar.Time, true)
	}

	return nil, nil
}

// stopFillPrice reports whether a stop order triggers within the bar and at
// what price. A bar opening beyond the trigger fills at the open.
func stopFillPrice(side types.Side, trigger float64, bar types.MarketData) (float64, bool) {
	if side == types.SideBuy {
		if bar.Open >= trigger {
			return bar.Open, true
		}
		if bar.High >= trigger {
			return trigger, true
		}

		return 0, false
	}

	if bar.Open <= trigger {
		return bar.Open, true
	}
	if bar.Low <= trigger {
		return trigger, true
	}

	return 0, false
}

// limitFillPrice reports whether a limit order fills within the bar. A bar
// opening through the limit fills at the open.
func limitFillPrice(side types.Side, limit float64, bar types.MarketData) (float64, bool) {
	if side == types.SideSell {
		if bar.Open >= limit {
			return bar.Open, true
		}
		if bar.High >= limit {
			return limit, true
		}

		return 0, false
	}

	if bar.Open <= limit {
		return bar.Open, true
	}
	if bar.Low <= limit {
		return limit, true
	}

	return 0, false
}

func (v *SimulatedVenue) fillEntry(group *bracket.Group, price float64, at time.Time) error {
	spec := group.Entry

	// entry is a stop-market order, so it pays the taker rate
	fee, err := v.model.Commission(spec.Quantity, price, false)
	if err != nil {
		return err
	}

	if err := group.FillEntry(); err != nil {
		return err
	}

	size := spec.Quantity
	if spec.Side == types.SideSell {
		size = -size
	}

	v.position = types.Position{
		Symbol:        spec.Symbol,
		Size:          size,
		EntryPrice:    price,
		Leverage:      spec.Leverage,
		OpenTimestamp: at,
	}
	v.entryCommission = fee
	v.marginUsed = v.model.TotalMargin(price, spec.Quantity, spec.Leverage)
	v.cash -= fee
	v.totalFees += fee

	if err := v.recordFill(spec, price, fee, at); err != nil {
		return err
	}

	v.logger.Info("entry filled",
		zap.String("group_id", group.ID),
		zap.Float64("price", price),
		zap.Float64("quantity", spec.Quantity),
		zap.Float64("margin_locked", v.marginUsed),
	)

	return nil
}

func (v *SimulatedVenue) fillExit(group *bracket.Group, spec types.OrderSpec, role types.LegRole, price float64, at time.Time, isMaker bool) (*types.ClosedTrade, error) {
	fee, err := v.model.Commission(spec.Quantity, price, isMaker)
	if err != nil {
		return nil, err
	}

	sibling, err := group.FillExit(role)
	if err != nil {
		return nil, err
	}

	position := v.position
	totalCommission := v.entryCommission + fee

	trade := types.NewClosedTrade(
		position.Symbol,
		position.Size,
		position.EntryPrice,
		price,
		totalCommission,
		position.Leverage,
		position.OpenTimestamp,
		at,
	)

	v.cash += position.UnrealizedPnL(price) - fee
	v.realizedPnL += trade.NetPnL
	v.totalFees += fee
	v.marginUsed = 0
	v.position = types.Position{}
	v.entryCommission = 0

	if err := v.recordFill(spec, price, fee, at); err != nil {
		return nil, err
	}

	siblingSpec := group.StopLoss
	if sibling == types.LegRoleTakeProfit {
		siblingSpec = group.TakeProfit
	}

	if err := v.recordOrderEvent(siblingSpec, types.OrderStatusCancelled, at, 0); err != nil {
		return nil, err
	}

	if v.ledger != nil {
		if err := v.ledger.RecordClosedTrade(trade); err != nil {
			return nil, err
		}
	}

	v.logger.Info("position closed",
		zap.String("group_id", group.ID),
		zap.String("leg", string(role)),
		zap.Float64("price", price),
		zap.Float64("net_pnl", trade.NetPnL),
	)

	return &trade, nil
}

func (v *SimulatedVenue) recordCancellation(group *bracket.Group, at time.Time) error {
	for _, spec := range []types.OrderSpec{group.Entry, group.StopLoss, group.TakeProfit} {
		if err := v.recordOrderEvent(spec, types.OrderStatusCancelled, at, 0); err != nil {
			return err
		}
	}

	return nil
}

func (v *SimulatedVenue) recordExpiry(group *bracket.Group, at time.Time) error {
	if err := v.recordOrderEvent(group.Entry, types.OrderStatusExpired, at, 0); err != nil {
		return err
	}

	for _, spec := range []types.OrderSpec{group.StopLoss, group.TakeProfit} {
		if err := v.recordOrderEvent(spec, types.OrderStatusCancelled, at, 0); err != nil {
			return err
		}
	}

	v.logger.Debug("bracket expired", zap.String("group_id", group.ID))

	return nil
}

func (v *SimulatedVenue) recordOrderEvent(spec types.OrderSpec, status types.OrderStatus, at time.Time, fee float64) error {
	if v.ledger == nil {
		return nil
	}

	return v.ledger.RecordOrder(types.Order{
		OrderID:      spec.ID,
		GroupID:      spec.GroupID,
		Symbol:       spec.Symbol,
		Side:         spec.Side,
		Kind:         spec.Kind,
		Role:         spec.Role,
		Quantity:     spec.Quantity,
		Price:        spec.TriggerPrice,
		Leverage:     spec.Leverage,
		Timestamp:    at,
		Status:       status,
		Reason:       spec.Reason,
		StrategyName: spec.StrategyName,
		Fee:          fee,
	})
}

func (v *SimulatedVenue) recordFill(spec types.OrderSpec, price, fee float64, at time.Time) error {
	if err := v.recordOrderEvent(spec, types.OrderStatusFilled, at, fee); err != nil {
		return err
	}

	if v.ledger == nil {
		return nil
	}

	return v.ledger.RecordFill(types.Fill{
		OrderID:    spec.ID,
		GroupID:    spec.GroupID,
		Role:       spec.Role,
		Side:       spec.Side,
		Price:      price,
		Quantity:   spec.Quantity,
		Commission: fee,
		Timestamp:  at,
	})
}

// pruneGroups drops resolved, expired and cancelled groups.
func (v *SimulatedVenue) pruneGroups() {
	live := v.groups[:0]
	for _, group := range v.groups {
		if group.IsLive() {
			live = append(live, group)
		}
	}

	v.groups = live
}

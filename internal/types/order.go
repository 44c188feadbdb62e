package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/tradeforge/marginbt/pkg/errors"
)

type Side string

type OrderKind string

type OrderStatus string

type LegRole string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderKindMarket OrderKind = "MARKET"
	OrderKindLimit  OrderKind = "LIMIT"
	OrderKindStop   OrderKind = "STOP"
)

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusExpired   OrderStatus = "EXPIRED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

const (
	LegRoleEntry      LegRole = "ENTRY"
	LegRoleStopLoss   LegRole = "STOP_LOSS"
	LegRoleTakeProfit LegRole = "TAKE_PROFIT"
)

const (
	OrderReasonBreakout   string = "breakout_entry"
	OrderReasonStopLoss   string = "stop_loss"
	OrderReasonTakeProfit string = "take_profit"
	OrderReasonExpired    string = "bracket_expired"
	OrderReasonSibling    string = "sibling_filled"
)

type Reason struct {
	Reason  string `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	Message string `yaml:"message" json:"message" csv:"message"`
}

// OrderSpec describes one order leg to submit to the execution venue.
// A bracket order is one entry spec with exactly two linked children
// (stop-loss and take-profit) sharing the same GroupID. Children activate
// only after the entry fills and are mutually cancelling.
type OrderSpec struct {
	ID           string       `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	GroupID      string       `yaml:"group_id" json:"group_id" csv:"group_id" validate:"required,uuid"`
	Symbol       string       `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side         Side         `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Kind         OrderKind    `yaml:"kind" json:"kind" csv:"kind" validate:"required,oneof=MARKET LIMIT STOP"`
	Role         LegRole      `yaml:"role" json:"role" csv:"role" validate:"required,oneof=ENTRY STOP_LOSS TAKE_PROFIT"`
	TriggerPrice float64      `yaml:"trigger_price" json:"trigger_price" csv:"trigger_price" validate:"required,gt=0"`
	Quantity     float64      `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	Leverage     int          `yaml:"leverage" json:"leverage" csv:"leverage" validate:"gte=1,lte=125"`
	Reason       Reason       `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	StrategyName string       `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name" validate:"required"`
	// ExpiresAt is the validity window shared by every leg of the bracket.
	// None means good-till-cancelled.
	ExpiresAt optional.Option[time.Time] `yaml:"expires_at" json:"expires_at" csv:"expires_at"`
	// Children holds the linked exit legs. Only entry specs carry children.
	Children []OrderSpec `yaml:"children" json:"children" csv:"-"`
}

// Order is an order as recorded by the venue after submission.
type Order struct {
	OrderID      string      `yaml:"order_id" json:"order_id" csv:"order_id"`
	GroupID      string      `yaml:"group_id" json:"group_id" csv:"group_id"`
	Symbol       string      `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side         Side        `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Kind         OrderKind   `yaml:"kind" json:"kind" csv:"kind" validate:"required,oneof=MARKET LIMIT STOP"`
	Role         LegRole     `yaml:"role" json:"role" csv:"role"`
	Quantity     float64     `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	Price        float64     `yaml:"price" json:"price" csv:"price" validate:"required,gt=0"`
	Leverage     int         `yaml:"leverage" json:"leverage" csv:"leverage"`
	Timestamp    time.Time   `yaml:"timestamp" json:"timestamp" csv:"timestamp" validate:"required"`
	Status       OrderStatus `yaml:"status" json:"status" csv:"status"`
	Reason       Reason      `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	StrategyName string      `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name" validate:"required"`
	Fee          float64     `yaml:"fee" json:"fee" csv:"fee" validate:"gte=0"`
}

// Fill reports an execution back from the venue.
type Fill struct {
	OrderID    string    `yaml:"order_id" json:"order_id"`
	GroupID    string    `yaml:"group_id" json:"group_id"`
	Role       LegRole   `yaml:"role" json:"role"`
	Side       Side      `yaml:"side" json:"side"`
	Price      float64   `yaml:"price" json:"price"`
	Quantity   float64   `yaml:"quantity" json:"quantity"`
	Commission float64   `yaml:"commission" json:"commission"`
	Timestamp  time.Time `yaml:"timestamp" json:"timestamp"`
}

// Validate validates the OrderSpec struct and its linked children.
func (o *OrderSpec) Validate() error {
	validate := validator.New()

	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order spec", err)
	}

	for i := range o.Children {
		child := &o.Children[i]
		if err := validate.Struct(child); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidBracket, err, "invalid bracket child %s", child.Role)
		}

		if child.GroupID != o.GroupID {
			return errors.Newf(errors.ErrCodeInvalidBracket, "child %s does not share the bracket group", child.Role)
		}
	}

	return nil
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}

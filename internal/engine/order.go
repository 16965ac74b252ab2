package engine

import (
	"errors"
	"fmt"

	"garm/internal/common"
)

// ErrInvalidFill signals a fill larger than the order's remaining
// quantity. This is an engine defect, not a rejectable order: callers
// must treat it as fatal rather than clamp and carry on.
var ErrInvalidFill = errors.New("fill exceeds remaining quantity")

// Order is the mutable fill-state of one resting or incoming
// instruction. It is exclusively owned by the book side holding it; the
// order index keeps only a non-owning reference.
type Order struct {
	id        common.OrderID
	kind      common.OrderType
	side      common.Side
	price     common.Price
	initial   common.Quantity
	remaining common.Quantity

	// FIFO links, managed by the price level the order rests in.
	next, prev *Order
}

func NewOrder(id common.OrderID, kind common.OrderType, side common.Side, price common.Price, quantity common.Quantity) *Order {
	return &Order{
		id:        id,
		kind:      kind,
		side:      side,
		price:     price,
		initial:   quantity,
		remaining: quantity,
	}
}

func (o *Order) ID() common.OrderID                 { return o.id }
func (o *Order) Kind() common.OrderType             { return o.kind }
func (o *Order) Side() common.Side                  { return o.side }
func (o *Order) Price() common.Price                { return o.price }
func (o *Order) InitialQuantity() common.Quantity   { return o.initial }
func (o *Order) RemainingQuantity() common.Quantity { return o.remaining }

func (o *Order) Filled() common.Quantity { return o.initial - o.remaining }

func (o *Order) IsFilled() bool { return o.remaining == 0 }

// Fill decrements the remaining quantity. Quantity arithmetic is
// unsigned and must never underflow, hence the precondition check.
func (o *Order) Fill(quantity common.Quantity) error {
	if quantity > o.remaining {
		return fmt.Errorf("order %d: fill %d with %d remaining: %w",
			o.id, quantity, o.remaining, ErrInvalidFill)
	}
	o.remaining -= quantity
	return nil
}

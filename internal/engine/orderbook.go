package engine

import (
	"time"

	"garm/internal/common"
)

// OrderBook matches orders for a single instrument under price-time
// priority. It assumes a single writer: AddOrder and CancelOrder run to
// completion before returning and the book takes no internal locks, so
// callers must serialize access themselves.
type OrderBook struct {
	bids   *bookSide
	asks   *bookSide
	orders *orderIndex
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids:   newBookSide(common.Bid),
		asks:   newBookSide(common.Ask),
		orders: newOrderIndex(),
	}
}

func (book *OrderBook) sideFor(side common.Side) *bookSide {
	if side == common.Bid {
		return book.bids
	}
	return book.asks
}

// canMatch reports whether an order at price on side could trade
// against the opposite side's best level. It does not mutate state.
func (book *OrderBook) canMatch(side common.Side, price common.Price) bool {
	switch side {
	case common.Bid:
		best, ok := book.asks.best()
		return ok && price >= best.price
	case common.Ask:
		best, ok := book.bids.best()
		return ok && price <= best.price
	}
	return false
}

// AddOrder admits an order and runs the matching loop, returning every
// trade it produced. Rejections are not errors: a duplicate id or a
// FillAndKill order that cannot cross at submission returns an empty
// trade list and leaves the book untouched. A non-nil error means the
// engine violated its own fill invariant and is fatal.
func (book *OrderBook) AddOrder(order *Order) (common.Trades, error) {
	if order.remaining == 0 {
		return nil, nil
	}
	if _, ok := book.orders.lookup(order.id); ok {
		return nil, nil
	}
	if order.kind == common.FillAndKill && !book.canMatch(order.side, order.price) {
		return nil, nil
	}

	book.sideFor(order.side).insert(order)
	if err := book.orders.insert(order); err != nil {
		// Unreachable after the lookup above.
		return nil, err
	}

	return book.match()
}

// CancelOrder removes a resting order. Unknown ids are a silent no-op,
// so cancellation is idempotent. Both sides take the identical path.
func (book *OrderBook) CancelOrder(id common.OrderID) {
	order, ok := book.orders.lookup(id)
	if !ok {
		return
	}
	book.removeOrder(order)
}

// Contains reports whether an order id is currently resting.
func (book *OrderBook) Contains(id common.OrderID) bool {
	_, ok := book.orders.lookup(id)
	return ok
}

// Levels returns the book snapshot for external reporting: each side as
// (price, aggregate quantity) rows, best price first.
func (book *OrderBook) Levels() (bids, asks []common.LevelInfo) {
	return book.bids.snapshot(), book.asks.snapshot()
}

func (book *OrderBook) removeOrder(order *Order) {
	book.orders.remove(order.id)
	book.sideFor(order.side).remove(order)
}

// match consumes the top of book price levels while they cross (i.e.,
// bid >= ask). While these orders cross, we match orders in
// price-time-priority: heads of the two best queues fill against each
// other for min(remaining, remaining), filled orders pop off, emptied
// levels drop out. After each pair of crossed levels is drained, a
// FillAndKill order left at either side's top that can no longer trade
// is cancelled rather than left resting.
func (book *OrderBook) match() (common.Trades, error) {
	var trades common.Trades
	for {
		bidLevel, bidOk := book.bids.best()
		askLevel, askOk := book.asks.best()

		// If either side is empty, or prices don't cross, we are done.
		if !bidOk || !askOk || bidLevel.price < askLevel.price {
			break
		}

		for !bidLevel.empty() && !askLevel.empty() {
			bid := bidLevel.front()
			ask := askLevel.front()

			fillQty := min(bid.remaining, ask.remaining)
			if err := bid.Fill(fillQty); err != nil {
				return trades, err
			}
			if err := ask.Fill(fillQty); err != nil {
				return trades, err
			}
			bidLevel.totalQty -= fillQty
			askLevel.totalQty -= fillQty

			// Each leg trades at the resting price of its own level.
			trades = append(trades, common.Trade{
				Bid: common.TradeSide{
					OrderID:  bid.id,
					Quantity: fillQty,
					Price:    bidLevel.price,
				},
				Ask: common.TradeSide{
					OrderID:  ask.id,
					Quantity: fillQty,
					Price:    askLevel.price,
				},
				Timestamp: time.Now(),
			})

			if bid.IsFilled() {
				bidLevel.unlink(bid)
				book.orders.remove(bid.id)
			}
			if ask.IsFilled() {
				askLevel.unlink(ask)
				book.orders.remove(ask.id)
			}
		}

		if bidLevel.empty() {
			book.bids.dropLevel(bidLevel)
		}
		if askLevel.empty() {
			book.asks.dropLevel(askLevel)
		}

		// A resting FillAndKill order that survives a matching pass but
		// cannot trade further is never left on the book. Checked per
		// side.
		book.evictUnmatchable(common.Bid)
		book.evictUnmatchable(common.Ask)
	}
	return trades, nil
}

func (book *OrderBook) evictUnmatchable(side common.Side) {
	for {
		level, ok := book.sideFor(side).best()
		if !ok {
			return
		}
		front := level.front()
		if front == nil || front.kind != common.FillAndKill {
			return
		}
		if book.canMatch(side, front.price) {
			return
		}
		book.removeOrder(front)
	}
}

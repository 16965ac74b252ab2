package common

import (
	"fmt"
	"time"
)

// TradeSide is one leg of a fill event. Each leg carries the resting
// price of its own level, so the two legs need not agree on price when
// the aggressor crosses the spread.
type TradeSide struct {
	OrderID  OrderID
	Quantity Quantity
	Price    Price
}

// Trade accounts for the two parties who matched: the bid leg and the
// ask leg of a single fill. Quantities on both legs are always equal.
type Trade struct {
	Bid       TradeSide
	Ask       TradeSide
	Timestamp time.Time
}

type Trades = []Trade

func (t Trade) String() string {
	return fmt.Sprintf(
		`Bid: [id=%d qty=%d price=%d]
Ask: [id=%d qty=%d price=%d]
Timestamp: %v`,
		t.Bid.OrderID,
		t.Bid.Quantity,
		t.Bid.Price,
		t.Ask.OrderID,
		t.Ask.Quantity,
		t.Ask.Price,
		t.Timestamp.Format(time.RFC3339Nano),
	)
}

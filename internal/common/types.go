package common

// OrderID is assigned by the submitting party, never generated inside
// the engine.
type OrderID uint64

// Price is a fixed-point signed tick count. Matching decisions are exact
// integer comparisons, never floating point.
type Price int64

type Quantity uint64

type AssetType int

const (
	Equities AssetType = iota
)

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	}
	return "unknown"
}

// Opposite returns the side a given side trades against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

type OrderType int

const (
	// GoodTillCancel orders rest on the book until fully filled or
	// cancelled.
	GoodTillCancel OrderType = iota
	// FillAndKill orders must trade immediately on submission, fully or
	// partially, and are discarded rather than left resting.
	FillAndKill
)

func (t OrderType) String() string {
	switch t {
	case GoodTillCancel:
		return "good-till-cancel"
	case FillAndKill:
		return "fill-and-kill"
	}
	return "unknown"
}

// LevelInfo is one row of a book snapshot: a price level and the
// aggregate resting quantity at it.
type LevelInfo struct {
	Price    Price
	Quantity Quantity
}

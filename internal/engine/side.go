package engine

import (
	"github.com/tidwall/btree"

	"garm/internal/common"
)

type priceLevels = btree.BTreeG[*priceLevel]

// bookSide holds the ordered price levels for one side of the book.
// The comparator encodes the side's priority, so Min is always the best
// level: highest price first for bids, lowest first for asks.
type bookSide struct {
	side   common.Side
	levels *priceLevels
}

func newBookSide(side common.Side) *bookSide {
	var less func(a, b *priceLevel) bool
	if side == common.Bid {
		// Sorted greatest first.
		less = func(a, b *priceLevel) bool {
			return a.price > b.price
		}
	} else {
		// Sorted least first.
		less = func(a, b *priceLevel) bool {
			return a.price < b.price
		}
	}
	return &bookSide{
		side:   side,
		levels: btree.NewBTreeG(less),
	}
}

// insert appends the order to the tail of its price level's queue,
// creating the level if absent.
func (s *bookSide) insert(o *Order) {
	// Levels comparator only accounts for price, so a dummy level works
	// for the search.
	level, ok := s.levels.GetMut(&priceLevel{price: o.price})
	if !ok {
		level = &priceLevel{price: o.price}
		s.levels.Set(level)
	}
	level.enqueue(o)
}

// remove erases the order from its queue position, dropping the level
// if the queue becomes empty.
func (s *bookSide) remove(o *Order) {
	level, ok := s.levels.GetMut(&priceLevel{price: o.price})
	if !ok {
		return
	}
	level.unlink(o)
	if level.empty() {
		s.levels.Delete(level)
	}
}

// best peeks the side's best level without removing it. Min here
// accounts for bids and asks being in inverse order, based on their
// comparison method.
func (s *bookSide) best() (*priceLevel, bool) {
	return s.levels.MinMut()
}

func (s *bookSide) dropLevel(level *priceLevel) {
	s.levels.Delete(level)
}

func (s *bookSide) empty() bool {
	return s.levels.Len() == 0
}

// snapshot flattens the side into (price, aggregate quantity) rows,
// best price first.
func (s *bookSide) snapshot() []common.LevelInfo {
	infos := make([]common.LevelInfo, 0, s.levels.Len())
	s.levels.Scan(func(level *priceLevel) bool {
		infos = append(infos, common.LevelInfo{
			Price:    level.price,
			Quantity: level.totalQty,
		})
		return true
	})
	return infos
}

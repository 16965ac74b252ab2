package engine

import (
	"errors"

	"garm/internal/common"
)

var ErrDuplicateOrder = errors.New("order id already present")

// orderIndex maps order ids to the live order for O(1) cancellation.
// The order itself carries its side and price, which is enough to find
// its level; the intrusive queue links make the unlink O(1) from there.
// The id set is always exactly the union of both book sides' orders.
type orderIndex struct {
	byID map[common.OrderID]*Order
}

func newOrderIndex() *orderIndex {
	return &orderIndex{byID: make(map[common.OrderID]*Order)}
}

func (idx *orderIndex) insert(o *Order) error {
	if _, ok := idx.byID[o.id]; ok {
		return ErrDuplicateOrder
	}
	idx.byID[o.id] = o
	return nil
}

func (idx *orderIndex) lookup(id common.OrderID) (*Order, bool) {
	o, ok := idx.byID[id]
	return o, ok
}

func (idx *orderIndex) remove(id common.OrderID) {
	delete(idx.byID, id)
}

func (idx *orderIndex) len() int { return len(idx.byID) }

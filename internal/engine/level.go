package engine

import "garm/internal/common"

// priceLevel is the FIFO queue of orders resting at one exact price.
// Queue order is strict arrival order and is never reordered. The queue
// is an intrusive doubly-linked list so that removal at a known order
// is O(1).
type priceLevel struct {
	price    common.Price
	head     *Order
	tail     *Order
	totalQty common.Quantity
	size     int
}

func (l *priceLevel) enqueue(o *Order) {
	if l.head == nil {
		l.head = o
		l.tail = o
	} else {
		l.tail.next = o
		o.prev = l.tail
		l.tail = o
	}
	l.totalQty += o.remaining
	l.size++
}

func (l *priceLevel) unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	o.next = nil
	o.prev = nil
	l.totalQty -= o.remaining
	l.size--
}

func (l *priceLevel) front() *Order { return l.head }

func (l *priceLevel) empty() bool { return l.size == 0 }

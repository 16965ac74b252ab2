package engine_test

import (
	"testing"

	"garm/internal/common"
	"garm/internal/engine"
)

func BenchmarkAddOrder_Resting(b *testing.B) {
	book := engine.NewOrderBook()
	for i := 0; i < b.N; i++ {
		// Spread bids over 64 levels below any ask so nothing matches.
		price := common.Price(100 + i%64)
		_, err := book.AddOrder(engine.NewOrder(common.OrderID(i+1), common.GoodTillCancel, common.Bid, price, 10))
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAddOrder_Matching(b *testing.B) {
	book := engine.NewOrderBook()
	id := common.OrderID(1)
	for i := 0; i < b.N; i++ {
		if _, err := book.AddOrder(engine.NewOrder(id, common.GoodTillCancel, common.Ask, 100, 10)); err != nil {
			b.Fatal(err)
		}
		id++
		if _, err := book.AddOrder(engine.NewOrder(id, common.GoodTillCancel, common.Bid, 100, 10)); err != nil {
			b.Fatal(err)
		}
		id++
	}
}

func BenchmarkCancelOrder(b *testing.B) {
	book := engine.NewOrderBook()
	for i := 0; i < b.N; i++ {
		price := common.Price(100 + i%64)
		if _, err := book.AddOrder(engine.NewOrder(common.OrderID(i+1), common.GoodTillCancel, common.Bid, price, 10)); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		book.CancelOrder(common.OrderID(i + 1))
	}
}

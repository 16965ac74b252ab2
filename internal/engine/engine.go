package engine

import (
	"errors"

	"github.com/rs/zerolog/log"

	"garm/internal/common"
)

var ErrUnknownAsset = errors.New("unsupported asset type")

// Reporter receives trade and error notifications from the engine.
// Implemented by whatever boundary is wired in front of the engine,
// e.g. the TCP gateway firing execution reports at counterparties.
type Reporter interface {
	ReportTrade(assetType common.AssetType, trade common.Trade) error
	ReportError(client string, err error) error
}

// Engine owns one order book per supported asset. Each book assumes a
// single writer, so whoever drives the engine must funnel all calls for
// a book through one dispatch path.
type Engine struct {
	Books    map[common.AssetType]*OrderBook
	reporter Reporter
}

func New(supportedAssets ...common.AssetType) *Engine {
	engine := &Engine{
		Books: make(map[common.AssetType]*OrderBook),
	}
	for _, assetType := range supportedAssets {
		engine.Books[assetType] = NewOrderBook()
	}
	return engine
}

func (engine *Engine) SetReporter(reporter Reporter) {
	engine.reporter = reporter
}

// PlaceOrder routes an order to its asset's book and reports every
// trade the matching produced. The trade list is also returned so
// in-process callers don't need a Reporter.
func (engine *Engine) PlaceOrder(assetType common.AssetType, order *Order) (common.Trades, error) {
	book, ok := engine.Books[assetType]
	if !ok {
		return nil, ErrUnknownAsset
	}

	trades, err := book.AddOrder(order)
	if err != nil {
		log.Error().
			Err(err).
			Uint64("order", uint64(order.ID())).
			Msg("matching aborted on invariant violation")
		return trades, err
	}

	for _, trade := range trades {
		log.Info().
			Uint64("bid", uint64(trade.Bid.OrderID)).
			Uint64("ask", uint64(trade.Ask.OrderID)).
			Uint64("qty", uint64(trade.Bid.Quantity)).
			Int64("bid_price", int64(trade.Bid.Price)).
			Int64("ask_price", int64(trade.Ask.Price)).
			Msg("trade")
		if engine.reporter != nil {
			if rerr := engine.reporter.ReportTrade(assetType, trade); rerr != nil {
				log.Error().Err(rerr).Msg("trade report failed")
			}
		}
	}

	return trades, nil
}

// CancelOrder cancels a resting order on the asset's book. Unknown ids
// are a no-op, matching the book's idempotent cancel.
func (engine *Engine) CancelOrder(assetType common.AssetType, id common.OrderID) error {
	book, ok := engine.Books[assetType]
	if !ok {
		return ErrUnknownAsset
	}
	book.CancelOrder(id)
	return nil
}

// Snapshot returns the asset's book as aggregate levels, best first.
func (engine *Engine) Snapshot(assetType common.AssetType) (bids, asks []common.LevelInfo, err error) {
	book, ok := engine.Books[assetType]
	if !ok {
		return nil, nil, ErrUnknownAsset
	}
	bids, asks = book.Levels()
	return bids, asks, nil
}

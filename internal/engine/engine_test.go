package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"garm/internal/common"
	"garm/internal/engine"
)

type MockReporter struct {
	trades common.Trades
}

func (r *MockReporter) ReportTrade(assetType common.AssetType, trade common.Trade) error {
	r.trades = append(r.trades, trade)
	return nil
}

func (r *MockReporter) ReportError(client string, err error) error {
	return nil
}

func TestEngine_PlaceOrder_ReportsTrades(t *testing.T) {
	eng := engine.New(common.Equities)
	reporter := &MockReporter{}
	eng.SetReporter(reporter)

	_, err := eng.PlaceOrder(common.Equities, engine.NewOrder(1, common.GoodTillCancel, common.Bid, 100, 10))
	assert.NoError(t, err)
	trades, err := eng.PlaceOrder(common.Equities, engine.NewOrder(2, common.GoodTillCancel, common.Ask, 100, 4))
	assert.NoError(t, err)

	assert.Len(t, trades, 1)
	assert.Equal(t, trades, reporter.trades)
}

func TestEngine_UnknownAsset(t *testing.T) {
	eng := engine.New(common.Equities)

	_, err := eng.PlaceOrder(common.AssetType(42), engine.NewOrder(1, common.GoodTillCancel, common.Bid, 100, 10))
	assert.ErrorIs(t, err, engine.ErrUnknownAsset)

	assert.ErrorIs(t, eng.CancelOrder(common.AssetType(42), 1), engine.ErrUnknownAsset)

	_, _, err = eng.Snapshot(common.AssetType(42))
	assert.ErrorIs(t, err, engine.ErrUnknownAsset)
}

func TestEngine_Snapshot(t *testing.T) {
	eng := engine.New(common.Equities)

	_, err := eng.PlaceOrder(common.Equities, engine.NewOrder(1, common.GoodTillCancel, common.Bid, 100, 10))
	assert.NoError(t, err)

	bids, asks, err := eng.Snapshot(common.Equities)
	assert.NoError(t, err)
	assert.Equal(t, []common.LevelInfo{{Price: 100, Quantity: 10}}, bids)
	assert.Empty(t, asks)
}

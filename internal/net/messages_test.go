package net

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "garm/internal/common"
)

func TestParseMessage_NewOrder_RoundTrip(t *testing.T) {
	msg := NewOrderMessage{
		AssetType: Equities,
		Kind:      FillAndKill,
		Side:      Ask,
		OrderID:   42,
		Price:     -250, // signed ticks survive the wire
		Quantity:  17,
	}

	parsed, err := parseMessage(msg.Serialize())
	require.NoError(t, err)

	got, ok := parsed.(*NewOrderMessage)
	require.True(t, ok)
	assert.Equal(t, NewOrder, got.GetType())
	assert.Equal(t, Equities, got.AssetType)
	assert.Equal(t, FillAndKill, got.Kind)
	assert.Equal(t, Ask, got.Side)
	assert.Equal(t, OrderID(42), got.OrderID)
	assert.Equal(t, Price(-250), got.Price)
	assert.Equal(t, Quantity(17), got.Quantity)

	order := got.Order()
	assert.Equal(t, OrderID(42), order.ID())
	assert.Equal(t, Quantity(17), order.RemainingQuantity())
}

func TestParseMessage_CancelOrder_RoundTrip(t *testing.T) {
	msg := CancelOrderMessage{AssetType: Equities, OrderID: 7}

	parsed, err := parseMessage(msg.Serialize())
	require.NoError(t, err)

	got, ok := parsed.(*CancelOrderMessage)
	require.True(t, ok)
	assert.Equal(t, CancelOrder, got.GetType())
	assert.Equal(t, OrderID(7), got.OrderID)
}

func TestParseMessage_Snapshot_RoundTrip(t *testing.T) {
	msg := SnapshotMessage{AssetType: Equities}

	parsed, err := parseMessage(msg.Serialize())
	require.NoError(t, err)

	got, ok := parsed.(*SnapshotMessage)
	require.True(t, ok)
	assert.Equal(t, Snapshot, got.GetType())
	assert.Equal(t, Equities, got.AssetType)
}

func TestParseMessage_Errors(t *testing.T) {
	_, err := parseMessage([]byte{})
	assert.ErrorIs(t, err, ErrMessageTooShort)

	_, err = parseMessage([]byte{0xFF, 0xFF})
	assert.ErrorIs(t, err, ErrInvalidMessageType)

	// Valid type, truncated body.
	truncated := (&NewOrderMessage{}).Serialize()[:10]
	_, err = parseMessage(truncated)
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestReport_RoundTrip(t *testing.T) {
	report := Report{
		MessageType: ExecutionReport,
		AssetType:   Equities,
		Side:        Bid,
		OrderID:     9,
		Quantity:    4,
		Price:       100,
		Timestamp:   uint64(time.Now().UnixNano()),
	}

	got, err := ParseReport(report.Serialize())
	require.NoError(t, err)
	assert.Equal(t, report, got)
}

func TestReport_ErrorRoundTrip(t *testing.T) {
	wire := generateWireErrorReport(ErrClientDoesNotExist)

	got, err := ParseReport(wire)
	require.NoError(t, err)
	assert.Equal(t, ErrorReport, got.MessageType)
	assert.Equal(t, ErrClientDoesNotExist.Error(), got.Err)
}

func TestGenerateWireTradeReports(t *testing.T) {
	trade := Trade{
		Bid:       TradeSide{OrderID: 1, Quantity: 5, Price: 105},
		Ask:       TradeSide{OrderID: 2, Quantity: 5, Price: 100},
		Timestamp: time.Now(),
	}

	bidWire, askWire := generateWireTradeReports(trade, Equities)

	bid, err := ParseReport(bidWire)
	require.NoError(t, err)
	assert.Equal(t, Bid, bid.Side)
	assert.Equal(t, OrderID(1), bid.OrderID)
	assert.Equal(t, Price(105), bid.Price)

	ask, err := ParseReport(askWire)
	require.NoError(t, err)
	assert.Equal(t, Ask, ask.Side)
	assert.Equal(t, OrderID(2), ask.OrderID)
	assert.Equal(t, Price(100), ask.Price)
}

func TestSnapshotReport_RoundTrip(t *testing.T) {
	levels := []LevelInfo{
		{Price: 100, Quantity: 190},
		{Price: 101, Quantity: 20},
	}

	wire := generateWireSnapshotReport(Equities, Ask, levels)

	assetType, side, got, err := ParseSnapshotReport(wire)
	require.NoError(t, err)
	assert.Equal(t, Equities, assetType)
	assert.Equal(t, Ask, side)
	assert.Equal(t, levels, got)

	// Empty side serializes to a bare header.
	wire = generateWireSnapshotReport(Equities, Bid, nil)
	_, _, got, err = ParseSnapshotReport(wire)
	require.NoError(t, err)
	assert.Empty(t, got)
}

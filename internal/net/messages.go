package net

import (
	"encoding/binary"
	"errors"
	"time"

	. "garm/internal/common"
	"garm/internal/engine"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short")
)

type MessageType int

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	Snapshot
)

type ReportMessageType int

const (
	ExecutionReport ReportMessageType = iota
	SnapshotReport
	ErrorReport
)

type Message interface {
	GetType() MessageType
}

// Message format constants
const (
	BaseMessageHeaderLen  = 2
	NewOrderMessageLen    = 2 + 2 + 2 + 1 + 8 + 8 + 8
	CancelOrderMessageLen = 2 + 2 + 8
	SnapshotMessageLen    = 2 + 2
)

// Generic message type.
type BaseMessage struct {
	TypeOf MessageType // 2 bytes
}

func (m BaseMessage) GetType() MessageType {
	return m.TypeOf
}

func parseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return BaseMessage{}, ErrMessageTooShort
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	msg = msg[2:]
	switch typeOf {
	case Heartbeat:
		return BaseMessage{TypeOf: Heartbeat}, nil
	case NewOrder:
		return parseNewOrder(msg)
	case CancelOrder:
		return parseCancelOrder(msg)
	case Snapshot:
		return parseSnapshot(msg)
	default:
		return BaseMessage{}, ErrInvalidMessageType
	}
}

type NewOrderMessage struct {
	BaseMessage
	AssetType AssetType // 2 bytes
	Kind      OrderType // 2 bytes
	Side      Side      // 1 byte
	OrderID   OrderID   // 8 bytes
	Price     Price     // 8 bytes, signed ticks
	Quantity  Quantity  // 8 bytes
}

func (m *NewOrderMessage) Order() *engine.Order {
	return engine.NewOrder(m.OrderID, m.Kind, m.Side, m.Price, m.Quantity)
}

func (m *NewOrderMessage) Serialize() []byte {
	buf := make([]byte, NewOrderMessageLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(m.AssetType))
	binary.BigEndian.PutUint16(buf[4:6], uint16(m.Kind))
	buf[6] = byte(m.Side)
	binary.BigEndian.PutUint64(buf[7:15], uint64(m.OrderID))
	binary.BigEndian.PutUint64(buf[15:23], uint64(m.Price))
	binary.BigEndian.PutUint64(buf[23:31], uint64(m.Quantity))
	return buf
}

func parseNewOrder(msg []byte) (*NewOrderMessage, error) {
	if len(msg) < NewOrderMessageLen-BaseMessageHeaderLen {
		return nil, ErrMessageTooShort
	}

	m := &NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	m.AssetType = AssetType(binary.BigEndian.Uint16(msg[0:2]))
	m.Kind = OrderType(binary.BigEndian.Uint16(msg[2:4]))
	m.Side = Side(msg[4])
	m.OrderID = OrderID(binary.BigEndian.Uint64(msg[5:13]))
	m.Price = Price(binary.BigEndian.Uint64(msg[13:21]))
	m.Quantity = Quantity(binary.BigEndian.Uint64(msg[21:29]))
	return m, nil
}

type CancelOrderMessage struct {
	BaseMessage
	AssetType AssetType // 2 bytes
	OrderID   OrderID   // 8 bytes
}

func (m *CancelOrderMessage) Serialize() []byte {
	buf := make([]byte, CancelOrderMessageLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(m.AssetType))
	binary.BigEndian.PutUint64(buf[4:12], uint64(m.OrderID))
	return buf
}

func parseCancelOrder(msg []byte) (*CancelOrderMessage, error) {
	if len(msg) < CancelOrderMessageLen-BaseMessageHeaderLen {
		return nil, ErrMessageTooShort
	}

	m := &CancelOrderMessage{BaseMessage: BaseMessage{TypeOf: CancelOrder}}
	m.AssetType = AssetType(binary.BigEndian.Uint16(msg[0:2]))
	m.OrderID = OrderID(binary.BigEndian.Uint64(msg[2:10]))
	return m, nil
}

type SnapshotMessage struct {
	BaseMessage
	AssetType AssetType // 2 bytes
}

func (m *SnapshotMessage) Serialize() []byte {
	buf := make([]byte, SnapshotMessageLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(Snapshot))
	binary.BigEndian.PutUint16(buf[2:4], uint16(m.AssetType))
	return buf
}

func parseSnapshot(msg []byte) (*SnapshotMessage, error) {
	if len(msg) < SnapshotMessageLen-BaseMessageHeaderLen {
		return nil, ErrMessageTooShort
	}

	m := &SnapshotMessage{BaseMessage: BaseMessage{TypeOf: Snapshot}}
	m.AssetType = AssetType(binary.BigEndian.Uint16(msg[0:2]))
	return m, nil
}

// Report is an execution or error report addressed to one party.
type Report struct {
	MessageType ReportMessageType // 1 byte
	AssetType   AssetType         // 1 byte
	Side        Side              // 1 byte
	OrderID     OrderID           // 8 bytes
	Quantity    Quantity          // 8 bytes
	Price       Price             // 8 bytes
	Timestamp   uint64            // 8 bytes
	ErrStrLen   uint32            // 4 bytes
	Err         string            // n bytes
}

const ReportFixedHeaderLen = 1 + 1 + 1 + 8 + 8 + 8 + 8 + 4

// Serialize converts the report to be sent on the wire.
func (r *Report) Serialize() []byte {
	buf := make([]byte, ReportFixedHeaderLen+len(r.Err))
	buf[0] = byte(r.MessageType)
	buf[1] = byte(r.AssetType)
	buf[2] = byte(r.Side)
	binary.BigEndian.PutUint64(buf[3:11], uint64(r.OrderID))
	binary.BigEndian.PutUint64(buf[11:19], uint64(r.Quantity))
	binary.BigEndian.PutUint64(buf[19:27], uint64(r.Price))
	binary.BigEndian.PutUint64(buf[27:35], r.Timestamp)
	binary.BigEndian.PutUint32(buf[35:39], r.ErrStrLen)
	if r.ErrStrLen > 0 {
		copy(buf[ReportFixedHeaderLen:], r.Err)
	}
	return buf
}

// ParseReport decodes a report off the wire. Used by clients.
func ParseReport(msg []byte) (Report, error) {
	if len(msg) < ReportFixedHeaderLen {
		return Report{}, ErrMessageTooShort
	}

	r := Report{
		MessageType: ReportMessageType(msg[0]),
		AssetType:   AssetType(msg[1]),
		Side:        Side(msg[2]),
		OrderID:     OrderID(binary.BigEndian.Uint64(msg[3:11])),
		Quantity:    Quantity(binary.BigEndian.Uint64(msg[11:19])),
		Price:       Price(binary.BigEndian.Uint64(msg[19:27])),
		Timestamp:   binary.BigEndian.Uint64(msg[27:35]),
		ErrStrLen:   binary.BigEndian.Uint32(msg[35:39]),
	}
	if len(msg) < ReportFixedHeaderLen+int(r.ErrStrLen) {
		return Report{}, ErrMessageTooShort
	}
	r.Err = string(msg[ReportFixedHeaderLen : ReportFixedHeaderLen+int(r.ErrStrLen)])
	return r, nil
}

// generateWireTradeReports generates both trade reports required
// addressable to the respective counterparty. Each party's report
// carries its own leg's price.
func generateWireTradeReports(trade Trade, assetType AssetType) (bidWire, askWire []byte) {
	timestamp := uint64(trade.Timestamp.UnixNano())

	bid := Report{
		MessageType: ExecutionReport,
		AssetType:   assetType,
		Side:        Bid,
		OrderID:     trade.Bid.OrderID,
		Quantity:    trade.Bid.Quantity,
		Price:       trade.Bid.Price,
		Timestamp:   timestamp,
	}
	ask := Report{
		MessageType: ExecutionReport,
		AssetType:   assetType,
		Side:        Ask,
		OrderID:     trade.Ask.OrderID,
		Quantity:    trade.Ask.Quantity,
		Price:       trade.Ask.Price,
		Timestamp:   timestamp,
	}

	return bid.Serialize(), ask.Serialize()
}

func generateWireErrorReport(err error) []byte {
	errStr := err.Error()
	report := Report{
		MessageType: ErrorReport,
		Timestamp:   uint64(time.Now().UnixNano()),
		ErrStrLen:   uint32(len(errStr)),
		Err:         errStr,
	}
	return report.Serialize()
}

// Snapshot report format: type(1) asset(1) side(1) count(2) then
// count * (price(8) qty(8)) rows, best price first.
const SnapshotReportHeaderLen = 1 + 1 + 1 + 2

func generateWireSnapshotReport(assetType AssetType, side Side, levels []LevelInfo) []byte {
	buf := make([]byte, SnapshotReportHeaderLen+16*len(levels))
	buf[0] = byte(SnapshotReport)
	buf[1] = byte(assetType)
	buf[2] = byte(side)
	binary.BigEndian.PutUint16(buf[3:5], uint16(len(levels)))

	offset := SnapshotReportHeaderLen
	for _, level := range levels {
		binary.BigEndian.PutUint64(buf[offset:offset+8], uint64(level.Price))
		binary.BigEndian.PutUint64(buf[offset+8:offset+16], uint64(level.Quantity))
		offset += 16
	}
	return buf
}

// ParseSnapshotReport decodes one side of a book snapshot. Used by
// clients.
func ParseSnapshotReport(msg []byte) (AssetType, Side, []LevelInfo, error) {
	if len(msg) < SnapshotReportHeaderLen {
		return 0, 0, nil, ErrMessageTooShort
	}
	assetType := AssetType(msg[1])
	side := Side(msg[2])
	count := int(binary.BigEndian.Uint16(msg[3:5]))
	if len(msg) < SnapshotReportHeaderLen+16*count {
		return 0, 0, nil, ErrMessageTooShort
	}

	levels := make([]LevelInfo, count)
	offset := SnapshotReportHeaderLen
	for i := range levels {
		levels[i].Price = Price(binary.BigEndian.Uint64(msg[offset : offset+8]))
		levels[i].Quantity = Quantity(binary.BigEndian.Uint64(msg[offset+8 : offset+16]))
		offset += 16
	}
	return assetType, side, levels, nil
}

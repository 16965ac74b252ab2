package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	. "garm/internal/common"
	"garm/internal/engine"
	"garm/internal/utils"
)

const (
	MAX_RECV_SIZE      = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = 30 * time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// ClientSession contains relevant information pertaining to an
// individual connected TCP session.
type ClientSession struct {
	id   uuid.UUID
	conn net.Conn
}

// ClientMessage links a message to the client sending it.
type ClientMessage struct {
	clientAddress string
	message       Message
}

// Server is the order-entry gateway. All engine calls happen on the
// session handler goroutine, which is what gives each book its
// single-writer guarantee: workers only read and parse.
type Server struct {
	address            string
	port               int
	pool               utils.WorkerPool
	cancel             context.CancelFunc
	engine             *engine.Engine
	clientSessions     map[string]ClientSession
	clientSessionsLock sync.Mutex
	clientMessages     chan ClientMessage

	// Order ownership for routing execution reports back to the
	// submitting session. Touched only by the session handler.
	orderOwners map[OrderID]string
}

func New(address string, port int, eng *engine.Engine) *Server {
	return &Server{
		address:        address,
		port:           port,
		pool:           utils.NewWorkerPool(defaultNWorkers),
		engine:         eng,
		clientSessions: make(map[string]ClientSession),
		clientMessages: make(chan ClientMessage, 1),
		orderOwners:    make(map[OrderID]string),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	s.cancel()
}

func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	// Setup a cancel on the context for future shutdown.
	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	// Start a tcp listener.
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	// Start the worker pool.
	s.pool.Setup(t, s.handleConnection)

	// Start the session handler.
	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("address", s.address).Int("port", s.port).Msg("server running")

	// Start accepting connections.
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}

			// Add the client to client sessions we are tracking.
			// We expect to potentially maintain a long TCP session.
			session := s.addClientSession(conn)
			log.Info().
				Str("address", conn.RemoteAddr().String()).
				Str("session", session.id.String()).
				Msg("new client added")

			// Pass over the connection to be read from.
			s.pool.AddTask(conn)
		}
	}
}

// ReportTrade sends each leg's execution report to the session that
// owns that leg's order. A leg without a known owner is skipped; the
// order may have been placed in-process. Runs on the session handler
// goroutine, so reading orderOwners here needs no lock.
func (s *Server) ReportTrade(assetType AssetType, trade Trade) error {
	bidWire, askWire := generateWireTradeReports(trade, assetType)

	if owner, ok := s.orderOwners[trade.Bid.OrderID]; ok {
		if err := s.sendTo(owner, bidWire); err != nil {
			return fmt.Errorf("bid leg report: %w", err)
		}
	}
	if owner, ok := s.orderOwners[trade.Ask.OrderID]; ok {
		if err := s.sendTo(owner, askWire); err != nil {
			return fmt.Errorf("ask leg report: %w", err)
		}
	}
	return nil
}

// ReportError sends an error report to a specific client.
func (s *Server) ReportError(client string, err error) error {
	return s.sendTo(client, generateWireErrorReport(err))
}

func (s *Server) sendTo(clientAddress string, wire []byte) error {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	client, ok := s.clientSessions[clientAddress]
	if !ok {
		return ErrClientDoesNotExist
	}

	if _, err := client.conn.Write(wire); err != nil {
		delete(s.clientSessions, clientAddress)
		return fmt.Errorf("unable to send report: %w", err)
	}
	return nil
}

// sessionHandler reads off incoming messages from clients and drives
// the matching engine. Every message, regardless of which worker read
// it, funnels through here one at a time.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case message := <-s.clientMessages:
			s.handleMessage(message)
		}
	}
}

func (s *Server) handleMessage(message ClientMessage) {
	client := message.clientAddress

	switch m := message.message.(type) {
	case *NewOrderMessage:
		order := m.Order()
		// Register ownership first so trade reports fired during the
		// matching can find the submitter. A duplicate id must not
		// steal routing from the resting order's owner.
		if _, taken := s.orderOwners[order.ID()]; !taken {
			s.orderOwners[order.ID()] = client
		}

		trades, err := s.engine.PlaceOrder(m.AssetType, order)
		if err != nil {
			if rerr := s.ReportError(client, err); rerr != nil {
				log.Error().Err(rerr).Msg("error report failed")
			}
		}
		log.Info().
			Str("client", client).
			Uint64("order", uint64(order.ID())).
			Str("side", order.Side().String()).
			Str("kind", order.Kind().String()).
			Int64("price", int64(order.Price())).
			Int("trades", len(trades)).
			Msg("order placed")

		s.pruneOwners(m.AssetType, order.ID(), trades)

	case *CancelOrderMessage:
		if err := s.engine.CancelOrder(m.AssetType, m.OrderID); err != nil {
			if rerr := s.ReportError(client, err); rerr != nil {
				log.Error().Err(rerr).Msg("error report failed")
			}
			return
		}
		delete(s.orderOwners, m.OrderID)
		log.Info().
			Str("client", client).
			Uint64("order", uint64(m.OrderID)).
			Msg("order cancelled")

	case *SnapshotMessage:
		bids, asks, err := s.engine.Snapshot(m.AssetType)
		if err != nil {
			if rerr := s.ReportError(client, err); rerr != nil {
				log.Error().Err(rerr).Msg("error report failed")
			}
			return
		}
		if err := s.sendTo(client, generateWireSnapshotReport(m.AssetType, Bid, bids)); err != nil {
			log.Error().Err(err).Str("client", client).Msg("snapshot send failed")
			return
		}
		if err := s.sendTo(client, generateWireSnapshotReport(m.AssetType, Ask, asks)); err != nil {
			log.Error().Err(err).Str("client", client).Msg("snapshot send failed")
		}

	case BaseMessage:
		if m.GetType() == Heartbeat {
			log.Debug().Str("client", client).Msg("heartbeat")
		}
	}
}

// pruneOwners drops ownership entries for orders that left the book
// during a matching pass, so the map only tracks resting orders.
func (s *Server) pruneOwners(assetType AssetType, incoming OrderID, trades Trades) {
	book, ok := s.engine.Books[assetType]
	if !ok {
		return
	}
	if !book.Contains(incoming) {
		delete(s.orderOwners, incoming)
	}
	for _, trade := range trades {
		if !book.Contains(trade.Bid.OrderID) {
			delete(s.orderOwners, trade.Bid.OrderID)
		}
		if !book.Contains(trade.Ask.OrderID) {
			delete(s.orderOwners, trade.Ask.OrderID)
		}
	}
}

// handleConnection is a short-lived worker method which reads the next
// message off the connection, parses and passes it forward to
// sessionHandler to handle it. If the connection dies, the client
// session is cleaned up. This method does not lock any client session
// directly and gives up early if the connection is terminated.
// Note, any error returned from here is fatal.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}
	clientAddress := conn.RemoteAddr().String()

	// Set max read timeout.
	if err := conn.SetReadDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().
			Str("address", clientAddress).
			Err(err).
			Msg("failed setting deadline for connection")
		return nil
	}

	buffer := make([]byte, MAX_RECV_SIZE)
	select {
	case <-t.Dying():
		return nil
	default:
		n, err := conn.Read(buffer)
		if err != nil {
			log.Info().
				Err(err).
				Str("address", clientAddress).
				Msg("client connection closed")

			// If a read from a client fails, it is likely that the
			// client has exited. Clean up the client session.
			s.deleteClientSession(clientAddress)
			if cerr := conn.Close(); cerr != nil {
				log.Error().Str("address", clientAddress).Err(cerr).Msg("close failed")
			}
			return nil
		}

		message, err := parseMessage(buffer[:n])
		if err != nil {
			log.Error().
				Err(err).
				Str("address", clientAddress).
				Msg("error parsing message")
		} else {
			// Pass over to the message handling buffer.
			s.clientMessages <- ClientMessage{
				message:       message,
				clientAddress: clientAddress,
			}
		}

		// Push the client connection back to handle the next message.
		s.pool.AddTask(conn)
	}
	return nil
}

// addClientSession is an atomic map add
func (s *Server) addClientSession(conn net.Conn) ClientSession {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	session := ClientSession{
		id:   uuid.New(),
		conn: conn,
	}
	s.clientSessions[conn.RemoteAddr().String()] = session
	return session
}

// deleteClientSession is an atomic map remove
func (s *Server) deleteClientSession(address string) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	delete(s.clientSessions, address)
}

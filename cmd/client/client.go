package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"garm/internal/common"
	garmNet "garm/internal/net"
)

func main() {
	// CLI parameter parsing.
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the exchange server")
	action := flag.String("action", "place", "Action to perform: ['place', 'cancel', 'snapshot']")

	// Order parameters.
	sideStr := flag.String("side", "bid", "Order side: 'bid' or 'ask'")
	kindStr := flag.String("kind", "gtc", "Order kind: 'gtc' (good-till-cancel) or 'fak' (fill-and-kill)")
	price := flag.Int64("price", 100, "Limit price in ticks")
	idStr := flag.String("id", "1", "Order id, or first id of a batch")
	qtyStr := flag.String("qty", "10", "Quantity or comma-separated list (e.g. 10,20,50)")

	flag.Parse()

	// Connect to server.
	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s\n", *serverAddr)

	// Start listening for reports.
	go readReports(conn)

	side := common.Bid
	if strings.ToLower(*sideStr) == "ask" {
		side = common.Ask
	}

	kind := common.GoodTillCancel
	if strings.ToLower(*kindStr) == "fak" {
		kind = common.FillAndKill
	}

	firstID, err := strconv.ParseUint(*idStr, 10, 64)
	if err != nil {
		log.Fatalf("Invalid -id %q: %v", *idStr, err)
	}

	switch strings.ToLower(*action) {
	case "place":
		quantities := parseQuantities(*qtyStr)
		// Batches get sequential ids starting at -id.
		for i, qty := range quantities {
			msg := garmNet.NewOrderMessage{
				AssetType: common.Equities,
				Kind:      kind,
				Side:      side,
				OrderID:   common.OrderID(firstID + uint64(i)),
				Price:     common.Price(*price),
				Quantity:  qty,
			}
			if _, err := conn.Write(msg.Serialize()); err != nil {
				log.Fatalf("Failed to send order: %v", err)
			}
			fmt.Printf("Placed %s %s id=%d qty=%d @%d\n",
				kind, side, msg.OrderID, qty, *price)
		}

	case "cancel":
		msg := garmNet.CancelOrderMessage{
			AssetType: common.Equities,
			OrderID:   common.OrderID(firstID),
		}
		if _, err := conn.Write(msg.Serialize()); err != nil {
			log.Fatalf("Failed to send cancel: %v", err)
		}
		fmt.Printf("Cancelled id=%d\n", firstID)

	case "snapshot":
		msg := garmNet.SnapshotMessage{AssetType: common.Equities}
		if _, err := conn.Write(msg.Serialize()); err != nil {
			log.Fatalf("Failed to request snapshot: %v", err)
		}

	default:
		fmt.Printf("Unknown action %q\n", *action)
		flag.Usage()
		os.Exit(1)
	}

	// Linger for reports before exiting.
	time.Sleep(2 * time.Second)
}

func parseQuantities(qtyStr string) []common.Quantity {
	parts := strings.Split(qtyStr, ",")
	quantities := make([]common.Quantity, 0, len(parts))
	for _, part := range parts {
		qty, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			log.Fatalf("Invalid quantity %q: %v", part, err)
		}
		quantities = append(quantities, common.Quantity(qty))
	}
	return quantities
}

func readReports(conn net.Conn) {
	buffer := make([]byte, 4096)
	for {
		n, err := conn.Read(buffer)
		if err != nil {
			if err != io.EOF {
				log.Printf("Report stream closed: %v", err)
			}
			return
		}
		printReport(buffer[:n])
	}
}

func printReport(wire []byte) {
	if len(wire) == 0 {
		return
	}

	switch garmNet.ReportMessageType(wire[0]) {
	case garmNet.SnapshotReport:
		_, side, levels, err := garmNet.ParseSnapshotReport(wire)
		if err != nil {
			log.Printf("Bad snapshot report: %v", err)
			return
		}
		fmt.Printf("--- %s levels ---\n", side)
		for _, level := range levels {
			fmt.Printf("  %d x %d\n", level.Price, level.Quantity)
		}

	case garmNet.ExecutionReport, garmNet.ErrorReport:
		report, err := garmNet.ParseReport(wire)
		if err != nil {
			log.Printf("Bad report: %v", err)
			return
		}
		if report.MessageType == garmNet.ErrorReport {
			fmt.Printf("! server error: %s\n", report.Err)
			return
		}
		fmt.Printf("* filled: id=%d side=%s qty=%d @%d\n",
			report.OrderID, report.Side, report.Quantity, report.Price)

	default:
		log.Printf("Unknown report type %d", wire[0])
	}
}

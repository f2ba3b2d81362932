// Headless kitchen-display client. Discovers the feed server over mDNS (or
// takes -server host:port), keeps the order and ticket collections reconciled
// through the change feed, and prints the pending queue whenever it changes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"KopiPos/app/config"
	"KopiPos/app/database"
	"KopiPos/app/models"
	appsync "KopiPos/app/sync"
	"KopiPos/app/websocket"

	"github.com/grandcat/zeroconf"
)

func main() {
	server := flag.String("server", "", "feed server host:port (skips mDNS discovery)")
	dataDir := flag.String("data", "./kds-data", "local mirror directory")
	flag.Parse()

	cfg := config.Load()

	host := *server
	if host == "" {
		discovered, err := discoverFeed(cfg.System.DialTimeout)
		if err != nil {
			log.Fatalf("No feed server found: %v", err)
		}
		host = discovered
	}
	log.Printf("Using feed server %s", host)

	mirror, err := database.OpenLocalDB(filepath.Join(*dataDir, "mirror.db"))
	if err != nil {
		log.Fatalf("Failed to open local mirror: %v", err)
	}
	defer mirror.Close()

	feed, err := websocket.Dial(host, cfg.System.DialTimeout)
	if err != nil {
		log.Fatalf("Failed to connect to feed: %v", err)
	}

	api := &http.Client{Timeout: cfg.System.RefreshTimeout}
	orders := appsync.NewCollection(websocket.TableOrders, orderID,
		fetchJSON[models.Order](api, host, "/api/orders"),
		mirror, cfg.System.RefreshTimeout)
	tickets := appsync.NewCollection(websocket.TableKdsTickets, ticketID,
		nil, nil, cfg.System.RefreshTimeout)

	reconciler := appsync.NewReconciler(feed)
	defer reconciler.Close()
	for _, err := range []error{
		appsync.Watch(reconciler, orders),
		appsync.Watch(reconciler, tickets),
	} {
		if err != nil {
			log.Fatalf("Failed to subscribe: %v", err)
		}
	}

	ctx := context.Background()
	if err := appsync.RefreshAll(ctx, orders); err != nil {
		log.Printf("Initial load degraded: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	printQueue(orders, tickets)
	for {
		select {
		case <-ticker.C:
			printQueue(orders, tickets)
		case <-reconciler.Done():
			log.Println("Feed connection lost, exiting")
			return
		case <-quit:
			return
		}
	}
}

func orderID(o models.Order) uint      { return o.ID }
func ticketID(t models.KdsTicket) uint { return t.ID }

// discoverFeed browses the LAN for the feed announcement.
func discoverFeed(timeout time.Duration) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 4)
	if err := resolver.Browse(ctx, "_kopipos._tcp", "local.", entries); err != nil {
		return "", err
	}

	for {
		select {
		case entry := <-entries:
			if entry == nil || len(entry.AddrIPv4) == 0 {
				continue
			}
			return fmt.Sprintf("%s:%d", entry.AddrIPv4[0], entry.Port), nil
		case <-ctx.Done():
			return "", fmt.Errorf("mDNS browse timed out after %v", timeout)
		}
	}
}

// fetchJSON builds a collection fetcher over the feed server's REST surface.
func fetchJSON[T any](client *http.Client, host, path string) appsync.FetchFunc[T] {
	return func(ctx context.Context) ([]T, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+host+path, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s returned %s", path, resp.Status)
		}

		var records []T
		if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	}
}

var lastPrinted string

// printQueue renders the pending orders when the view changed. Ticket events
// arrive ahead of the order refresh, so the live ticket replica overrides the
// snapshot embedded in the order.
func printQueue(orders *appsync.Collection[models.Order], tickets *appsync.Collection[models.KdsTicket]) {
	latestTicket := make(map[uint]models.TicketStatus)
	for _, t := range tickets.Snapshot() {
		latestTicket[t.OrderID] = t.Status
	}

	out := "KITCHEN QUEUE"
	if orders.Degraded() {
		out += " (offline data)"
	}
	out += "\n"

	count := 0
	for _, order := range orders.Snapshot() {
		if order.Status != models.OrderStatusPending {
			continue
		}
		count++
		status := "?"
		if len(order.Tickets) > 0 {
			status = order.Tickets[0].Status.String()
		}
		if live, ok := latestTicket[order.ID]; ok {
			status = live.String()
		}
		out += fmt.Sprintf("  #%d  %-20s %-10s %s\n",
			order.ID, order.CustomerName, status, order.Date.Local().Format("15:04"))
	}
	if count == 0 {
		out += "  (no pending orders)\n"
	}

	if out != lastPrinted {
		lastPrinted = out
		fmt.Print(out)
	}
}

// Command orderctl runs administrative tasks against the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"orderdesk/internal/analytics"
	"orderdesk/internal/config"
	"orderdesk/internal/database"
	"orderdesk/internal/models"
	"orderdesk/internal/services"

	"github.com/olekukonko/tablewriter"
)

const usage = `usage: orderctl <command> [flags]

commands:
  create-admin -username NAME -password PASS   create an admin or reset its password
  summary                                      print order counts and revenue
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()
	store, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open %s storage: %v", cfg.StorageDriver, err)
	}
	defer store.Close(ctx)

	switch os.Args[1] {
	case "create-admin":
		err = createAdmin(ctx, store, cfg, os.Args[2:])
	case "summary":
		err = summary(ctx, store, os.Stdout)
	default:
		fmt.Fprint(os.Stderr, usage)
		store.Close(ctx)
		os.Exit(2)
	}
	if err != nil {
		store.Close(ctx)
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func createAdmin(ctx context.Context, store *database.Store, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	username := fs.String("username", "admin", "admin username")
	password := fs.String("password", "", "admin password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	auth := services.NewAuthService(store.Admins, cfg.JWTSecret, cfg.TokenTTL)
	created, err := auth.UpsertAdmin(ctx, *username, *password)
	if err != nil {
		return err
	}
	if created {
		log.Printf("admin %q created", *username)
	} else {
		log.Printf("password of admin %q updated", *username)
	}
	return nil
}

func summary(ctx context.Context, store *database.Store, out io.Writer) error {
	orders, err := store.Orders.List(ctx, models.SortCreatedDesc)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}
	return renderSummary(out, orders)
}

func renderSummary(out io.Writer, orders []models.Order) error {
	snap := analytics.Summarize(orders)
	counts := analytics.CountByStatus(orders)

	table := tablewriter.NewWriter(out)
	table.Header("Metric", "Value")
	rows := [][]string{
		{"Total orders", strconv.Itoa(snap.TotalOrders)},
		{"Delivered", strconv.Itoa(snap.DeliveredOrders)},
		{"Pending", strconv.Itoa(snap.PendingOrders)},
	}
	for _, s := range models.DeliveryStatuses {
		if s == models.StatusDelivered || s == models.StatusPending {
			continue
		}
		rows = append(rows, []string{string(s), strconv.Itoa(counts[s])})
	}
	rows = append(rows, []string{"Revenue", strconv.FormatFloat(snap.Revenue, 'f', 2, 64)})

	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"stock-ledger/internal/app"
	"stock-ledger/internal/core"
	"stock-ledger/internal/db"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	svc := app.NewAppService(
		pool,
		core.NewStockUnitService(pool),
		core.NewCatalogService(pool),
		core.NewReservationService(pool),
		core.NewLocationService(pool),
	)

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "overview":
		rows, err := svc.GetStockOverview(ctx)
		if err != nil {
			log.Fatalf("overview: %v", err)
		}
		for _, r := range rows {
			fmt.Printf("%-5d %-30s %-20s qty=%-10s cost=%-10s value=%s\n",
				r.StockUnitID, r.CatalogItem, r.Location,
				r.Quantity, r.UnitCost.StringFixed(4), r.TotalValue.StringFixed(2))
		}

	case "export":
		if len(os.Args) < 3 {
			log.Fatal("Usage: app export <file.xlsx>")
		}
		data, err := svc.ExportValuation(ctx)
		if err != nil {
			log.Fatalf("export: %v", err)
		}
		if err := os.WriteFile(os.Args[2], data, 0o644); err != nil {
			log.Fatalf("export: %v", err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", os.Args[2], len(data))

	case "unit":
		id := argInt(2, "stock unit id")
		state, err := svc.GetStockUnitState(ctx, id)
		if err != nil {
			log.Fatalf("unit: %v", err)
		}
		fmt.Printf("unit %d: qty=%s value=%s cost=%s\n",
			state.StockUnitID, state.Quantity,
			state.TotalValue.StringFixed(2), state.UnitCost.StringFixed(4))

	case "entries":
		id := argInt(2, "stock unit id")
		entries, err := svc.ListLedgerEntries(ctx, id)
		if err != nil {
			log.Fatalf("entries: %v", err)
		}
		for _, e := range entries {
			price := "-"
			if e.UnitPrice.Valid {
				price = e.UnitPrice.Decimal.String()
			}
			fmt.Printf("%-5d %-10s qty=%-10s price=%-10s %s\n",
				e.ID, e.Kind, e.Quantity, price, e.Timestamp.Format(time.RFC3339))
		}

	case "append":
		if len(os.Args) < 5 {
			log.Fatal("Usage: app append <stock unit id> <kind> <quantity> [unit price]")
		}
		req := app.AppendEntryRequest{
			StockUnitID: argInt(2, "stock unit id"),
			Kind:        os.Args[3],
			Quantity:    os.Args[4],
		}
		if len(os.Args) > 5 {
			req.UnitPrice = os.Args[5]
		}
		entry, err := svc.AppendLedgerEntry(ctx, req)
		if err != nil {
			log.Fatalf("append: %v", err)
		}
		fmt.Printf("entry %d appended to unit %d\n", entry.ID, entry.StockUnitID)

	case "remove-entry":
		id := argInt(2, "entry id")
		if err := svc.RemoveLedgerEntry(ctx, id); err != nil {
			log.Fatalf("remove-entry: %v", err)
		}
		fmt.Printf("entry %d removed\n", id)

	case "available":
		id := argInt(2, "catalog item id")
		a, err := svc.GetCatalogItemAvailability(ctx, id)
		if err != nil {
			log.Fatalf("available: %v", err)
		}
		fmt.Printf("item %d: available=%s warehouse=%s\n", a.CatalogItemID, a.Available, a.WarehouseTotal)

	case "prices":
		id := argInt(2, "catalog item id")
		stats, err := svc.GetPurchasePriceStats(ctx, id)
		if err != nil {
			log.Fatalf("prices: %v", err)
		}
		fmt.Printf("item %d: min=%s max=%s avg=%s last=%s\n", id,
			nullDec(stats.Min), nullDec(stats.Max), nullDec(stats.Avg), nullDec(stats.Last))

	case "reserve":
		if len(os.Args) < 5 {
			log.Fatal("Usage: app reserve <catalog item id> <quantity> <reserved by> [expires in hours]")
		}
		req := app.CreateReservationRequest{
			CatalogItemID: argInt(2, "catalog item id"),
			Quantity:      os.Args[3],
			ReservedBy:    os.Args[4],
		}
		if len(os.Args) > 5 {
			hours := argInt(5, "expiry hours")
			expires := time.Now().UTC().Add(time.Duration(hours) * time.Hour)
			req.ExpiresAt = &expires
		}
		r, err := svc.CreateReservation(ctx, req)
		if err != nil {
			log.Fatalf("reserve: %v", err)
		}
		fmt.Printf("reservation %s: %s units of item %d\n", r.ID, r.Quantity, r.CatalogItemID)

	case "unreserve":
		if len(os.Args) < 3 {
			log.Fatal("Usage: app unreserve <reservation id>")
		}
		if err := svc.CancelReservation(ctx, os.Args[2]); err != nil {
			log.Fatalf("unreserve: %v", err)
		}
		fmt.Println("reservation cancelled")

	case "reservations":
		id := argInt(2, "catalog item id")
		list, err := svc.ListReservations(ctx, id)
		if err != nil {
			log.Fatalf("reservations: %v", err)
		}
		for _, r := range list {
			expiry := "never"
			if r.ExpiresAt != nil {
				expiry = r.ExpiresAt.Format(time.RFC3339)
			}
			fmt.Printf("%s prio=%d qty=%-10s by=%-20s expires=%s\n",
				r.ID, r.Priority, r.Quantity, r.ReservedBy, expiry)
		}

	case "add-location":
		if len(os.Args) < 4 {
			log.Fatal("Usage: app add-location <name> <storable: true|false>")
		}
		storable, err := strconv.ParseBool(os.Args[3])
		if err != nil {
			log.Fatalf("add-location: %v", err)
		}
		loc, err := svc.CreateLocation(ctx, app.CreateLocationRequest{Name: os.Args[2], CanStoreItems: storable})
		if err != nil {
			log.Fatalf("add-location: %v", err)
		}
		fmt.Printf("location %d created\n", loc.ID)

	case "add-item":
		if len(os.Args) < 3 {
			log.Fatal("Usage: app add-item <name>")
		}
		item, err := svc.CreateCatalogItem(ctx, os.Args[2], "")
		if err != nil {
			log.Fatalf("add-item: %v", err)
		}
		fmt.Printf("catalog item %d created\n", item.ID)

	case "add-unit":
		if len(os.Args) < 4 {
			log.Fatal("Usage: app add-unit <catalog item id> <location id>")
		}
		unit, err := svc.CreateStockUnit(ctx, app.CreateStockUnitRequest{
			CatalogItemID: argInt(2, "catalog item id"),
			LocationID:    argInt(3, "location id"),
		})
		if err != nil {
			log.Fatalf("add-unit: %v", err)
		}
		fmt.Printf("stock unit %d created\n", unit.ID)

	default:
		usage()
	}
}

func argInt(pos int, name string) int {
	if len(os.Args) <= pos {
		log.Fatalf("missing argument: %s", name)
	}
	n, err := strconv.Atoi(os.Args[pos])
	if err != nil {
		log.Fatalf("invalid %s %q", name, os.Args[pos])
	}
	return n
}

func nullDec(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: app <command> [args]

Commands:
  overview                                        stock valuation per unit
  export <file.xlsx>                              write the valuation report
  unit <id>                                       cached state of one stock unit
  entries <stock unit id>                         full ledger of one unit
  append <unit> <kind> <qty> [price]              record a stock movement
  remove-entry <entry id>                         delete a ledger entry
  available <catalog item id>                     availability net of reservations
  prices <catalog item id>                        purchase price statistics
  reserve <item> <qty> <by> [hours]               place a reservation
  unreserve <reservation id>                      cancel a reservation
  reservations <catalog item id>                  list active reservations
  add-location <name> <storable>                  create a location
  add-item <name>                                 create a catalog item
  add-unit <item id> <location id>                create a stock unit`)
	os.Exit(2)
}

// Package cablebill provides a customer and billing records engine for
// cable TV and internet service operators.
//
// Cablebill is designed as a library, not a service. Import it directly
// into your Go application. It provides:
//
//   - Service area and customer connection registry
//   - Payment recording with month tagging
//   - Month-by-month balance statements with running cumulative dues
//   - All-time balance summaries since a connection started
//   - Defaulter scans for a target billing month
//   - A merged activity timeline of payments and record changes
//   - Pluggable storage (memory, MongoDB, PostgreSQL, SQLite)
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/fibernet/cablebill"
//	    "github.com/fibernet/cablebill/store/memory"
//	)
//
//	eng := cablebill.New(memory.New())
//
//	ctx := context.Background()
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Core Concepts
//
// Areas group customers by neighborhood or feeder line:
//
//	a := &area.Area{Name: "Gulshan Block 5"}
//	eng.CreateArea(ctx, a)
//
// Customers are connections with a monthly fee:
//
//	c := &customer.Customer{
//	    AreaID:           a.ID,
//	    Name:             "Bilal Ahmed",
//	    ConnectionNumber: "GB5-0042",
//	    MonthlyFee:       cablebill.NewAmount(1000, 0),
//	}
//	eng.CreateCustomer(ctx, c)
//
// Payments are tagged with the billing month they settle. Legacy
// records without a month tag count toward the month they were
// created in when balances are computed:
//
//	eng.RecordPayment(ctx, &payment.Payment{
//	    CustomerID: c.ID,
//	    Month:      cablebill.MustParseMonth("2026-03"),
//	    Amount:     cablebill.NewAmount(1000, 0),
//	})
//
// Balance statements enumerate every month from the connection start:
//
//	stmt, err := eng.MonthlyBalances(ctx, c.ID, cablebill.Month{})
//	for _, row := range stmt.Rows {
//	    fmt.Println(row.Month, row.Pending, row.CumulativePending)
//	}
//
// # Money
//
// All monetary values use arbitrary-precision decimals, never floats.
// The Amount type is an alias for decimal.Decimal from
// github.com/shopspring/decimal.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	area_01h2xcejqtf2nbrexx3vqjhp41  // Area ID
//	cust_01h2xcejqtf2nbrexx3vqjhp41  // Customer ID
//	pay_01h455vb4pex5vsknk084sn02q   // Payment ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package cablebill

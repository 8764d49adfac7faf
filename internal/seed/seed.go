// Package seed fills the dashboard with synthetic receipt data so the
// listing, classification and batch views have something to show during
// demos and manual testing.
package seed

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brickyard/jobticket/internal/recognize"
	"github.com/brickyard/jobticket/internal/ticket"
)

var jobNames = []string{
	"Pine Ave Renovation",
	"Elm St Roofing",
	"Main St Office",
	"Warehouse Upgrade",
	"Lakeside Cabin",
	"Maple Rd Paving",
	"Downtown Loft",
}

var vendors = []string{
	"HOME DEPOT",
	"LOWE'S",
	"ACE HARDWARE",
	"FERGUSON SUPPLY",
	"SUNBELT RENTALS",
}

var fuelVendors = []string{
	"SHELL",
	"CHEVRON",
	"PILOT TRAVEL CENTER",
}

var itemNames = []string{
	"2X4X8 STUD", "CONCRETE MIX 80LB", "DECK SCREWS 5LB", "PVC PIPE 10FT",
	"ROOF SHINGLE BNDL", "JOINT COMPOUND", "REBAR #4", "PAINT INT GAL",
	"WORK GLOVES", "CAULK TUBE",
}

// Options controls how much synthetic data is generated.
type Options struct {
	Months   int   // how many months back (default 6)
	Batches  int   // upload batches per month (default 30)
	AvgItems int   // average receipts per batch, clamped to 1..5 (default 2)
	Seed     int64 // random seed; 0 seeds from the clock
	Reset    bool  // clear existing tickets and their blobs first
}

// Summary reports what a seeding run produced.
type Summary struct {
	Batches int
	Tickets int
}

// Seeder writes synthetic tickets through the same store and storage the
// dashboard uses.
type Seeder struct {
	store   ticket.Store
	storage ticket.Storage
	opts    Options
	rng     *rand.Rand
	now     time.Time
}

// New creates a Seeder. Zero option fields get the defaults above.
func New(store ticket.Store, storage ticket.Storage, opts Options) *Seeder {
	if opts.Months <= 0 {
		opts.Months = 6
	}
	if opts.Batches <= 0 {
		opts.Batches = 30
	}
	if opts.AvgItems <= 0 {
		opts.AvgItems = 2
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{
		store:   store,
		storage: storage,
		opts:    opts,
		rng:     rand.New(rand.NewSource(seed)),
		now:     time.Now().UTC(),
	}
}

// Run generates the data, resetting first when asked.
func (s *Seeder) Run() (Summary, error) {
	if s.opts.Reset {
		if err := s.reset(); err != nil {
			return Summary{}, err
		}
	}

	var sum Summary
	for m := 0; m < s.opts.Months; m++ {
		month := s.now.AddDate(0, -m, 0)
		for b := 0; b < s.opts.Batches; b++ {
			n, err := s.seedBatch(month)
			if err != nil {
				return sum, err
			}
			sum.Batches++
			sum.Tickets += n
		}
	}
	return sum, nil
}

// reset removes every existing ticket along with its blob and result.
func (s *Seeder) reset() error {
	tickets, err := s.store.ListTickets()
	if err != nil {
		return fmt.Errorf("listing tickets: %w", err)
	}
	for _, t := range tickets {
		if t.StorageKey != "" {
			if err := s.storage.Delete(t.StorageKey); err != nil {
				slog.Warn("Failed to delete blob", "key", t.StorageKey, "error", err)
			}
		}
		if t.ResultKey != "" {
			if err := s.storage.Delete(t.ResultKey); err != nil {
				slog.Warn("Failed to delete result", "key", t.ResultKey, "error", err)
			}
		}
		if err := s.store.DeleteTicket(t.Name); err != nil {
			return fmt.Errorf("deleting ticket %s: %w", t.Name, err)
		}
	}
	slog.Info("Cleared existing tickets", "count", len(tickets))
	return nil
}

// seedBatch writes one upload batch inside the given month and returns the
// number of tickets created.
func (s *Seeder) seedBatch(month time.Time) (int, error) {
	ts := s.timestampWithin(month)
	batchID := fmt.Sprintf("%s_%s", ts.Format("20060102150405"), s.hexID()[:6])

	// Items per batch vary around the average, clamped to 1..5
	n := int(s.rng.NormFloat64() + float64(s.opts.AvgItems))
	if n < 1 {
		n = 1
	}
	if n > 5 {
		n = 5
	}

	for i := 1; i <= n; i++ {
		fuel := s.rng.Float64() < 0.3
		total := s.randTotal(fuel)
		job := jobNames[s.rng.Intn(len(jobNames))]

		// 8 hex chars keeps camera-style names unique across a large run
		orig := fmt.Sprintf("IMG_%s_%s.jpg", ts.Format("20060102"), s.hexID()[:8])
		key := fmt.Sprintf("%s_%s", s.hexID(), orig)

		if _, err := s.storage.Save(key, []byte("synthetic receipt image\n")); err != nil {
			return 0, fmt.Errorf("saving blob: %w", err)
		}

		result := recognize.Result{File: key, Text: s.receiptText(fuel, total, ts)}
		data, err := result.Marshal()
		if err != nil {
			return 0, err
		}
		resultKey := recognize.ResultPath(key)
		if _, err := s.storage.Save(resultKey, data); err != nil {
			return 0, fmt.Errorf("saving result: %w", err)
		}

		t := &ticket.Ticket{
			Name:        orig,
			StorageKey:  key,
			ResultKey:   resultKey,
			ContentType: "image/jpeg",
			Status:      ticket.StatusDone,
			JobName:     job,
			Total:       &total,
			BatchID:     batchID,
			BatchSeq:    i,
			BatchTotal:  n,
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
		if err := s.store.SaveTicket(t); err != nil {
			return 0, fmt.Errorf("saving ticket: %w", err)
		}
	}
	return n, nil
}

// timestampWithin picks a uniformly random moment inside the month.
func (s *Seeder) timestampWithin(month time.Time) time.Time {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	span := start.AddDate(0, 1, 0).Sub(start)
	return start.Add(time.Duration(s.rng.Int63n(int64(span))))
}

// hexID draws a UUID from the seeder's rng so runs with the same seed
// produce the same identifiers.
func (s *Seeder) hexID() string {
	u, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		// rand.Rand.Read never fails
		panic(err)
	}
	return hex.EncodeToString(u[:])
}

func (s *Seeder) randTotal(fuel bool) float64 {
	var v float64
	if fuel {
		v = 35 + s.rng.Float64()*105
	} else {
		v = 20 + s.rng.Float64()*630
	}
	return float64(int(v*100)) / 100
}

// receiptText fakes the raw text an engine would have pulled off the photo.
func (s *Seeder) receiptText(fuel bool, total float64, ts time.Time) string {
	var b strings.Builder
	if fuel {
		fmt.Fprintf(&b, "%s\n", fuelVendors[s.rng.Intn(len(fuelVendors))])
		fmt.Fprintf(&b, "%s\n", ts.Format("01/02/2006 15:04"))
		gallons := total / (2.8 + s.rng.Float64())
		fmt.Fprintf(&b, "PUMP %d  DIESEL\n", 1+s.rng.Intn(8))
		fmt.Fprintf(&b, "GALLONS %.3f\n", gallons)
		fmt.Fprintf(&b, "TOTAL $%.2f\n", total)
		return b.String()
	}

	fmt.Fprintf(&b, "%s\n", vendors[s.rng.Intn(len(vendors))])
	fmt.Fprintf(&b, "%s\n", ts.Format("01/02/2006 15:04"))
	items := 1 + s.rng.Intn(4)
	running := 0.0
	for i := 0; i < items; i++ {
		price := total / float64(items)
		running += price
		fmt.Fprintf(&b, "%s  $%.2f\n", itemNames[s.rng.Intn(len(itemNames))], price)
	}
	fmt.Fprintf(&b, "SUBTOTAL $%.2f\n", running)
	fmt.Fprintf(&b, "TOTAL $%.2f\n", total)
	return b.String()
}

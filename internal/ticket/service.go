package ticket

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brickyard/jobticket/internal/recognize"
)

const (
	defaultScanWorkers = 2
	scanQueueSize      = 128
)

// IDGenerator generates unique IDs for storage keys and batches
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates hex-encoded random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles ticket operations: accepting uploads, scanning them
// through the recognition engine, classification, and the listing join.
type Service struct {
	store       Store
	storage     Storage
	engine      recognize.Engine
	idGenerator IDGenerator
	timeSource  TimeSource

	queue chan string
	wg    sync.WaitGroup
}

// NewService creates a new Service with default ID generator and time
// source. With async set, scan workers process uploads in the background;
// otherwise every scan runs inline.
func NewService(store Store, storage Storage, engine recognize.Engine, async bool, workers int) *Service {
	return NewServiceWithDeps(store, storage, engine, async, workers, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store Store, storage Storage, engine recognize.Engine, async bool, workers int, idGen IDGenerator, timeSrc TimeSource) *Service {
	s := &Service{
		store:       store,
		storage:     storage,
		engine:      engine,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
	if async {
		if workers < 1 {
			workers = defaultScanWorkers
		}
		s.queue = make(chan string, scanQueueSize)
		for i := 0; i < workers; i++ {
			s.wg.Add(1)
			go s.workerLoop(i)
		}
		slog.Info("Started scan workers", "workers", workers)
	}
	return s
}

// Async reports whether scans run on background workers.
func (s *Service) Async() bool {
	return s.queue != nil
}

// Close stops the scan workers, letting queued scans finish first.
func (s *Service) Close() {
	if s.queue != nil {
		close(s.queue)
		s.wg.Wait()
	}
}

func (s *Service) workerLoop(n int) {
	defer s.wg.Done()
	slog.Debug("Scan worker started", "worker", n)
	for name := range s.queue {
		s.scanNow(name)
	}
	slog.Debug("Scan worker stopped", "worker", n)
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	// Get the extension
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Remove special characters, keep only alphanumeric, spaces, hyphens, and underscores
	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	// Replace multiple spaces with single space
	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	// Trim spaces
	base = strings.TrimSpace(base)

	// Truncate to reasonable length (50 chars for base, plus extension)
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	// If base is empty after sanitization, use a default
	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// storagePrefix matches the generated hex prefix on storage keys.
var storagePrefix = regexp.MustCompile(`^[0-9a-f]{32}_`)

// resultKeyFor derives the result document key for an uploaded blob. The
// suffix is appended rather than swapped for the extension so an uploaded
// .json file never shares a key with its own result.
func resultKeyFor(storageKey string) string {
	return storageKey + ".json"
}

// deriveOriginalName strips the generated hex prefix from a storage key,
// recovering the name the file was uploaded under. Keys without the prefix
// (files copied in by hand or by other tools) pass through unchanged.
func deriveOriginalName(key string) string {
	return storagePrefix.ReplaceAllString(key, "")
}

// NewBatch mints the shared identifier for one upload submission.
func (s *Service) NewBatch(total int) Batch {
	stamp := s.timeSource.Now().Format("20060102150405")
	return Batch{
		ID:    fmt.Sprintf("%s_%s", stamp, s.idGenerator.Generate()[:6]),
		Total: total,
	}
}

// Accept stores an uploaded file, upserts its ticket, and kicks off the
// scan. Re-uploading an existing name swaps the ticket to the new bytes:
// the old blob and result are removed, the classification survives, and
// the listing keeps showing the name once.
func (s *Service) Accept(filename string, data []byte, contentType string, batch Batch, seq int) (*Ticket, error) {
	name := sanitizeFilename(filename)
	if contentType == "" {
		contentType = recognize.ContentTypeForFile(name)
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	key, err := s.storage.Save(fmt.Sprintf("%s_%s", id, name), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	t := &Ticket{
		Name:        name,
		StorageKey:  key,
		ResultKey:   resultKeyFor(key),
		ContentType: contentType,
		Status:      StatusProcessing,
		BatchID:     batch.ID,
		BatchSeq:    seq,
		BatchTotal:  batch.Total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	previous, err := s.store.GetTicket(name)
	switch {
	case err == nil:
		t.JobName = previous.JobName
		t.Total = previous.Total
		t.CreatedAt = previous.CreatedAt
	case errors.Is(err, ErrTicketNotFound):
		// first upload under this name
	default:
		s.storage.Delete(key)
		return nil, fmt.Errorf("checking for existing ticket: %w", err)
	}

	placeholder := recognize.Result{
		File:      key,
		Status:    recognize.StatusProcessing,
		StartedAt: now.UTC().Format(time.RFC3339),
	}
	if err := s.saveResult(t.ResultKey, placeholder); err != nil {
		s.storage.Delete(key)
		return nil, err
	}

	if err := s.store.SaveTicket(t); err != nil {
		// Clean up the new blobs so the old record stays consistent
		s.storage.Delete(key)
		s.storage.Delete(t.ResultKey)
		return nil, fmt.Errorf("saving ticket: %w", err)
	}

	if previous != nil && previous.StorageKey != key {
		if err := s.storage.Delete(previous.StorageKey); err != nil {
			slog.Warn("Failed to delete replaced blob", "key", previous.StorageKey, "error", err)
		}
		if previous.ResultKey != "" && previous.ResultKey != t.ResultKey {
			if err := s.storage.Delete(previous.ResultKey); err != nil {
				slog.Warn("Failed to delete replaced result", "key", previous.ResultKey, "error", err)
			}
		}
	}

	slog.Info("Accepted receipt upload",
		"name", name,
		"key", key,
		"size", len(data),
		"batch_id", batch.ID,
		"batch_seq", seq,
	)

	s.scan(name)
	return t, nil
}

// scan schedules a ticket for recognition: queued when workers run, inline
// otherwise. A full queue falls back to scanning inline rather than
// dropping the job.
func (s *Service) scan(name string) {
	if s.queue != nil {
		select {
		case s.queue <- name:
		default:
			slog.Warn("Scan queue full, scanning inline", "name", name)
			s.scanNow(name)
		}
		return
	}
	s.scanNow(name)
}

func (s *Service) scanNow(name string) {
	if err := s.scanTicket(name); err != nil {
		slog.Error("Failed to scan receipt", "name", name, "error", err)
	}
}

// scanTicket runs recognition for a ticket's current blob and replaces the
// placeholder result. Engine failures are recorded on the result and the
// ticket; only store or storage failures propagate.
func (s *Service) scanTicket(name string) error {
	t, err := s.store.GetTicket(name)
	if err != nil {
		return fmt.Errorf("getting ticket: %w", err)
	}

	data, err := s.storage.Get(t.StorageKey)
	if err != nil {
		return s.recordScanFailure(t, fmt.Errorf("reading stored file: %w", err))
	}

	text, err := s.engine.Recognize(context.Background(), data, t.ContentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"name", t.Name,
			"content_type", t.ContentType,
			"file_size", len(data),
			"error", err,
		)
		return s.recordScanFailure(t, err)
	}

	return s.finishScan(t, recognize.Result{File: t.StorageKey, Text: text}, StatusDone)
}

func (s *Service) recordScanFailure(t *Ticket, cause error) error {
	failure := recognize.Result{
		File:   t.StorageKey,
		Status: recognize.StatusError,
		Error:  cause.Error(),
	}
	return s.finishScan(t, failure, StatusError)
}

// finishScan writes a scan's result and final status. A re-upload can swap
// the ticket to a new blob while a scan is in flight; the outcome of that
// scan describes bytes that no longer exist, so it is dropped and the
// replacement's own scan settles the ticket instead.
func (s *Service) finishScan(scanned *Ticket, r recognize.Result, status string) error {
	current, err := s.store.GetTicket(scanned.Name)
	if err != nil {
		return fmt.Errorf("refreshing ticket: %w", err)
	}
	if current.StorageKey != scanned.StorageKey {
		slog.Info("Dropping stale scan outcome",
			"name", scanned.Name,
			"scanned_key", scanned.StorageKey,
			"current_key", current.StorageKey,
		)
		return nil
	}

	if err := s.saveResult(current.ResultKey, r); err != nil {
		return err
	}

	current.Status = status
	current.UpdatedAt = s.timeSource.Now()
	if err := s.store.SaveTicket(current); err != nil {
		return fmt.Errorf("updating ticket: %w", err)
	}
	return nil
}

func (s *Service) saveResult(key string, r recognize.Result) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if _, err := s.storage.Save(key, data); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}

// Ticket retrieves a ticket by name
func (s *Service) Ticket(name string) (*Ticket, error) {
	t, err := s.store.GetTicket(name)
	if err != nil {
		return nil, fmt.Errorf("getting ticket: %w", err)
	}
	return t, nil
}

// FileData retrieves the stored bytes for a ticket
func (s *Service) FileData(name string) ([]byte, string, error) {
	t, err := s.store.GetTicket(name)
	if err != nil {
		return nil, "", fmt.Errorf("getting ticket: %w", err)
	}

	data, err := s.storage.Get(t.StorageKey)
	if err != nil {
		return nil, "", fmt.Errorf("getting stored file: %w", err)
	}

	return data, t.ContentType, nil
}

// Classify records the operator's job details on a ticket. The total has
// commas stripped; blank or unparsable totals clear the field.
func (s *Service) Classify(name, jobName, total string) (*Ticket, error) {
	t, err := s.store.GetTicket(name)
	if err != nil {
		return nil, fmt.Errorf("getting ticket: %w", err)
	}

	t.JobName = strings.TrimSpace(jobName)
	t.Total = ParseTotal(total)
	t.UpdatedAt = s.timeSource.Now()

	if err := s.store.SaveTicket(t); err != nil {
		return nil, fmt.Errorf("saving ticket: %w", err)
	}
	return t, nil
}

// ParseTotal interprets an operator-entered amount. Commas are stripped
// first; anything that still fails to parse means no total.
func ParseTotal(value string) *float64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Listing is a ticket joined with its extraction result for display.
type Listing struct {
	Ticket    *Ticket
	Text      string
	ScanError string
}

// Processing reports whether the listing's scan is still in flight.
func (l *Listing) Processing() bool {
	return l.Ticket.Status == StatusProcessing
}

// Listing returns the display listing for a single ticket.
func (s *Service) Listing(name string) (*Listing, error) {
	t, err := s.store.GetTicket(name)
	if err != nil {
		return nil, fmt.Errorf("getting ticket: %w", err)
	}
	return s.listingFor(t), nil
}

func (s *Service) listingFor(t *Ticket) *Listing {
	l := &Listing{Ticket: t}
	if t.ResultKey == "" || t.Status == StatusProcessing {
		return l
	}

	data, err := s.storage.Get(t.ResultKey)
	if err != nil {
		l.ScanError = fmt.Sprintf("result missing: %v", err)
		return l
	}
	r, err := recognize.ParseResult(data)
	if err != nil {
		l.ScanError = fmt.Sprintf("unreadable result: %v", err)
		return l
	}

	l.Text = r.Text
	if r.Failed() {
		l.ScanError = r.Error
	}
	return l
}

// Listings returns every ticket joined with its result, newest first.
func (s *Service) Listings() ([]*Listing, error) {
	tickets, err := s.store.ListTickets()
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}

	listings := make([]*Listing, 0, len(tickets))
	for _, t := range tickets {
		listings = append(listings, s.listingFor(t))
	}

	sort.Slice(listings, func(i, j int) bool {
		a, b := listings[i].Ticket, listings[j].Ticket
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Name < b.Name
	})
	return listings, nil
}

// Rescan walks the storage directory and adopts image files no ticket
// owns: receipts placed there by other tools get a ticket, an existing
// sibling result document is linked, and files without one are scheduled
// for scanning. With requeueStuck set, tickets left processing by a
// crashed run are scheduled again.
func (s *Service) Rescan(requeueStuck bool) error {
	keys, err := s.storage.List()
	if err != nil {
		return fmt.Errorf("listing storage: %w", err)
	}

	stored := make(map[string]bool, len(keys))
	for _, key := range keys {
		stored[key] = true
	}

	tickets, err := s.store.ListTickets()
	if err != nil {
		return fmt.Errorf("listing tickets: %w", err)
	}

	owned := make(map[string]bool, len(tickets)*2)
	for _, t := range tickets {
		owned[t.StorageKey] = true
		if t.ResultKey != "" {
			owned[t.ResultKey] = true
		}
	}

	for _, key := range keys {
		if owned[key] || !recognize.Scannable(key) {
			continue
		}
		if err := s.adopt(key, stored); err != nil {
			slog.Warn("Failed to adopt stored file", "key", key, "error", err)
		}
	}

	if requeueStuck {
		for _, t := range tickets {
			if t.Status == StatusProcessing {
				slog.Info("Requeueing unfinished scan", "name", t.Name)
				s.scan(t.Name)
			}
		}
	}
	return nil
}

func (s *Service) adopt(key string, stored map[string]bool) error {
	name := sanitizeFilename(deriveOriginalName(key))
	if _, err := s.store.GetTicket(name); err == nil {
		slog.Debug("Skipping adoption, name already tracked", "key", key, "name", name)
		return nil
	}

	now := s.timeSource.Now()
	t := &Ticket{
		Name:        name,
		StorageKey:  key,
		ResultKey:   recognize.ResultPath(key),
		ContentType: recognize.ContentTypeForFile(key),
		Status:      StatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if stored[t.ResultKey] {
		if data, err := s.storage.Get(t.ResultKey); err == nil {
			if r, err := recognize.ParseResult(data); err == nil {
				switch {
				case r.Pending():
					// keep processing; the scan below replaces it
				case r.Failed():
					t.Status = StatusError
				default:
					t.Status = StatusDone
				}
			}
		}
	} else {
		placeholder := recognize.Result{
			File:      key,
			Status:    recognize.StatusProcessing,
			StartedAt: now.UTC().Format(time.RFC3339),
		}
		if err := s.saveResult(t.ResultKey, placeholder); err != nil {
			return err
		}
	}

	if err := s.store.SaveTicket(t); err != nil {
		return fmt.Errorf("saving adopted ticket: %w", err)
	}
	slog.Info("Adopted stored file", "key", key, "name", name, "status", t.Status)

	if t.Status == StatusProcessing {
		s.scan(name)
	}
	return nil
}

package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ledgerfeed/ledgerfeed/internal/accounts"
	"github.com/ledgerfeed/ledgerfeed/internal/dedup"
	"github.com/ledgerfeed/ledgerfeed/internal/ledger"
	"github.com/ledgerfeed/ledgerfeed/internal/logger"
	"github.com/ledgerfeed/ledgerfeed/internal/model"
	"github.com/ledgerfeed/ledgerfeed/internal/normalize"
)

// ErrUnknownAccount means the source account id is not an asset account.
var ErrUnknownAccount = errors.New("unknown source account")

// Status is the per-record outcome marker.
type Status string

const (
	StatusPreview   Status = "preview"
	StatusCreated   Status = "created"
	StatusSkip      Status = "skip"
	StatusDuplicate Status = "duplicate"
	StatusFail      Status = "fail"
)

// Event reports what happened to one record.
type Event struct {
	Line   int
	Status Status
	Tx     model.Transaction // zero for skips and mapping failures
	ID     string            // ledger id, for created and duplicate
	Reason string
}

// Stats is the end-of-run tally. Duplicates are also counted in Skipped.
type Stats struct {
	Created    int `json:"created"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
	Previewed  int `json:"previewed"`
	Transfer   int `json:"transfer"`
	Withdrawal int `json:"withdrawal"`
	Deposit    int `json:"deposit"`
}

func (s *Stats) countKind(k model.TransactionKind) {
	switch k {
	case model.KindTransfer:
		s.Transfer++
	case model.KindWithdrawal:
		s.Withdrawal++
	case model.KindDeposit:
		s.Deposit++
	}
}

// Options selects the input and mode of one run.
type Options struct {
	Format          string // empty means detect
	SourceAccountID int
	DryRun          bool
}

// Driver runs one statement file through parse, map, dedup and write.
type Driver struct {
	Registry   *Registry
	Directory  accounts.Directory
	Sink       ledger.Sink
	Normalizer *normalize.Normalizer
	Cards      map[string]string
	Currency   string
	Location   *time.Location
	Language   string

	// Out receives one line per record and the summary. Nil discards.
	Out io.Writer
	// OnRecord, if set, is called after each record.
	OnRecord func(Event)
}

// Run imports the file at path. Only setup failures are returned as errors:
// a missing or malformed file, an unknown format, or an unknown source
// account. Per-record failures are counted and the run continues.
func (d *Driver) Run(ctx context.Context, path string, opts Options) (Stats, error) {
	log := logger.FromContext(ctx).With().Str("file", path).Bool("dry_run", opts.DryRun).Logger()
	out := d.Out
	if out == nil {
		out = io.Discard
	}

	format := opts.Format
	if format == "" {
		detected, err := DetectFile(path)
		if err != nil {
			return Stats{}, fmt.Errorf("detecting format: %w", err)
		}
		format = detected
	}
	adapter := d.Registry.Get(format)
	if adapter == nil {
		return Stats{}, fmt.Errorf("unknown format %q", format)
	}

	records, err := d.parse(adapter, path)
	if err != nil {
		return Stats{}, err
	}
	log.Debug().Str("format", format).Int("records", len(records)).Msg("parsed statement")

	snapshot, err := accounts.NewSnapshot(ctx, d.Directory)
	if err != nil {
		return Stats{}, fmt.Errorf("loading account directory: %w", err)
	}
	defer snapshot.Close()

	source, ok := snapshot.Asset(opts.SourceAccountID)
	if !ok {
		return Stats{}, fmt.Errorf("%w: %d", ErrUnknownAccount, opts.SourceAccountID)
	}

	names := d.Normalizer
	if names == nil {
		names = normalize.New(nil)
	}
	rc := &RunContext{
		Source:   source,
		Accounts: snapshot,
		Names:    names,
		Cards:    d.Cards,
		Currency: d.Currency,
		Location: d.Location,
		Language: d.Language,
	}
	gate := dedup.NewGate(d.Sink)

	var stats Stats
	for _, rec := range records {
		ev := d.process(ctx, adapter, gate, rc, rec, opts.DryRun, &stats)
		fmt.Fprintln(out, formatEvent(ev))
		if ev.Status == StatusFail {
			log.Error().Int("line", ev.Line).Str("description", rec.Summary()).Str("reason", ev.Reason).Msg("record failed")
		}
		if d.OnRecord != nil {
			d.OnRecord(ev)
		}
	}

	fmt.Fprintln(out, formatStats(stats, opts.DryRun))
	log.Info().
		Int("created", stats.Created).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Int("previewed", stats.Previewed).
		Msg("import finished")
	return stats, nil
}

func (d *Driver) parse(adapter Adapter, path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := adapter.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}

func (d *Driver) process(ctx context.Context, adapter Adapter, gate *dedup.Gate, rc *RunContext, rec Record, dryRun bool, stats *Stats) Event {
	ev := Event{Line: rec.Line()}

	tx, err := adapter.Map(rc, rec)
	if err != nil {
		var s *SkipError
		if errors.As(err, &s) {
			stats.Skipped++
			ev.Status, ev.Reason = StatusSkip, s.Reason
			return ev
		}
		stats.Failed++
		ev.Status, ev.Reason = StatusFail, err.Error()
		return ev
	}
	if err := tx.Validate(); err != nil {
		stats.Failed++
		ev.Status, ev.Reason = StatusFail, err.Error()
		return ev
	}
	ev.Tx = tx
	stats.countKind(tx.Kind)

	if dryRun {
		stats.Previewed++
		ev.Status = StatusPreview
		return ev
	}

	res := gate.Submit(ctx, tx)
	ev.ID = res.ID
	switch res.Outcome {
	case dedup.Created:
		stats.Created++
		ev.Status = StatusCreated
	case dedup.Duplicate:
		stats.Duplicates++
		stats.Skipped++
		ev.Status, ev.Reason = StatusDuplicate, "already imported"
	default:
		stats.Failed++
		ev.Status, ev.Reason = StatusFail, res.Err.Error()
	}
	return ev
}

func formatEvent(ev Event) string {
	prefix := fmt.Sprintf("[%4d] %-9s", ev.Line, ev.Status)
	if ev.Tx.Kind == "" {
		return prefix + " " + ev.Reason
	}
	tx := ev.Tx
	line := fmt.Sprintf("%s %s %-10s %s %s  %s -> %s", prefix,
		tx.Date.Format("2006-01-02"), tx.Kind, tx.Amount.StringFixed(2), tx.CurrencyCode,
		tx.Source, tx.Destination)
	line += "  " + tx.Description
	if ev.ID != "" {
		line += " (" + ev.ID + ")"
	}
	if ev.Reason != "" {
		line += ": " + ev.Reason
	}
	return line
}

func formatStats(s Stats, dryRun bool) string {
	if dryRun {
		return fmt.Sprintf("dry run: %d previewed, %d skipped, %d failed (transfer %d, withdrawal %d, deposit %d)",
			s.Previewed, s.Skipped, s.Failed, s.Transfer, s.Withdrawal, s.Deposit)
	}
	return fmt.Sprintf("imported: %d created, %d skipped (%d duplicates), %d failed (transfer %d, withdrawal %d, deposit %d)",
		s.Created, s.Skipped, s.Duplicates, s.Failed, s.Transfer, s.Withdrawal, s.Deposit)
}

package notify

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "sync"

    "go.uber.org/zap"
)

// Notifier delivers a booking event to the user-facing channel.
type Notifier interface {
    Notify(ctx context.Context, ev BookingEvent) error
}

// FileNotifier appends one human-readable line per event to a log file
// and mirrors it to the structured logger.  It stands in for the mail
// provider.
type FileNotifier struct {
    path string
    log  *zap.Logger
    mu   sync.Mutex
}

// NewFileNotifier writes to dir/booking.log.
func NewFileNotifier(dir string, log *zap.Logger) *FileNotifier {
    if log == nil {
        log = zap.NewNop()
    }
    return &FileNotifier{path: filepath.Join(dir, "booking.log"), log: log}
}

// Notify appends the event line.
func (n *FileNotifier) Notify(_ context.Context, ev BookingEvent) error {
    n.mu.Lock()
    defer n.mu.Unlock()

    if err := os.MkdirAll(filepath.Dir(n.path), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(n.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    n.log.Info("booking notification sent",
        zap.String("type", ev.Type),
        zap.Uint64("booking_id", ev.BookingID),
        zap.Uint64("user_id", ev.UserID))
    return nil
}

// FormatLine renders ev as a single log line.
func FormatLine(ev BookingEvent) string {
    what := "Booking confirmed"
    if ev.Type == BookingCancelled {
        what = "Booking cancelled"
    }
    return fmt.Sprintf("[%s] %s | booking_id=%d | user_id=%d | venue_id=%d | court_id=%d | date=%s | slot=%s-%s | total=%.2f | txn=%q\n",
        ev.OccurredAt, what, ev.BookingID, ev.UserID, ev.VenueID, ev.CourtID, ev.Date, ev.StartTime, ev.EndTime, ev.TotalPrice, ev.TransactionID)
}

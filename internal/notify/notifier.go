package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/adhan/internal/prayer"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = "/org/freedesktop/Notifications"
	appName    = "adhan"
)

// Level indicates the urgency of a notification.
type Level int

const (
	// LevelInfo is for informational messages (low urgency).
	LevelInfo Level = iota
	// LevelNormal is for event announcements (normal urgency).
	LevelNormal
	// LevelWarning is for failures the user should know about (critical urgency).
	LevelWarning
)

// urgency maps a level to the freedesktop urgency byte.
func (l Level) urgency() byte {
	switch l {
	case LevelInfo:
		return 0
	case LevelWarning:
		return 2
	default:
		return 1
	}
}

func (l Level) icon() string {
	switch l {
	case LevelWarning:
		return "dialog-warning"
	default:
		return "appointment-soon"
	}
}

// Notification holds the parameters of an org.freedesktop.Notifications.Notify call.
type Notification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]godbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Sender delivers a notification and returns the server-assigned id.
type Sender interface {
	Send(ctx context.Context, n *Notification) (uint32, error)
}

// BusSender sends notifications on the session bus.
type BusSender struct {
	conn *godbus.Conn
}

// NewBusSender connects to the session bus.
func NewBusSender() (*BusSender, error) {
	conn, err := godbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &BusSender{conn: conn}, nil
}

// Send implements Sender.
func (s *BusSender) Send(ctx context.Context, n *Notification) (uint32, error) {
	var id uint32
	obj := s.conn.Object(busName, objectPath)
	call := obj.CallWithContext(ctx, busName+".Notify", 0,
		n.AppName, n.ReplacesID, n.AppIcon, n.Summary, n.Body,
		n.Actions, n.Hints, n.ExpireTimeout)
	if call.Err != nil {
		return 0, fmt.Errorf("notify call failed: %w", call.Err)
	}
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to read notification id: %w", err)
	}
	return id, nil
}

// Desktop announces events as desktop notifications.
// It rate limits per key to prevent notification floods.
type Desktop struct {
	mu     sync.Mutex
	logger *slog.Logger
	sender Sender
	now    func() time.Time

	// Rate limiting
	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration        // minimum time between same notifications
}

// NewDesktop creates a desktop notifier that delivers through sender.
func NewDesktop(sender Sender, logger *slog.Logger) *Desktop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Desktop{
		logger:         logger,
		sender:         sender,
		now:            time.Now,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    time.Minute, // An event cannot legitimately repeat within a minute
	}
}

// Notify sends a notification unless the same key was sent within the
// minimum interval. It reports whether a notification went out.
func (d *Desktop) Notify(ctx context.Context, key, summary, body string, level Level) (bool, error) {
	d.mu.Lock()
	now := d.now()
	if last, ok := d.lastNotifyTime[key]; ok && now.Sub(last) < d.minInterval {
		d.mu.Unlock()
		d.logger.Debug("notification rate-limited", "key", key, "summary", summary)
		return false, nil
	}
	d.lastNotifyTime[key] = now
	d.mu.Unlock()

	n := &Notification{
		AppName: appName,
		AppIcon: level.icon(),
		Summary: summary,
		Body:    body,
		Actions: []string{},
		Hints: map[string]godbus.Variant{
			"urgency":       godbus.MakeVariant(level.urgency()),
			"desktop-entry": godbus.MakeVariant(appName),
		},
		ExpireTimeout: -1,
	}

	d.logger.Debug("sending desktop notification", "key", key, "summary", summary, "level", level)
	if _, err := d.sender.Send(ctx, n); err != nil {
		return false, err
	}
	return true, nil
}

// Announce implements the monitor's announcer: it tells the desktop that
// a prayer is due. Markers without a cue are not announced.
func (d *Desktop) Announce(ctx context.Context, ev prayer.Event) error {
	if !ev.Audible() {
		return nil
	}

	_, err := d.Notify(ctx, "event-"+ev.Kind.String(),
		"Prayer time: "+ev.Name(),
		ev.Instant.Format("15:04"),
		LevelNormal)
	return err
}

// AnnounceFailure tells the desktop that an event's cue could not be played.
func (d *Desktop) AnnounceFailure(ctx context.Context, ev prayer.Event, cause error) error {
	_, err := d.Notify(ctx, "failure-"+ev.Kind.String(),
		"Could not play "+ev.Name(),
		cause.Error(),
		LevelWarning)
	return err
}

package reminders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/herraise/hubclient/pkg/logger"
	"github.com/herraise/hubclient/pkg/notifications"
)

// DeadlineWindow is how close a deadline must be to be re-surfaced.
const DeadlineWindow = 24 * time.Hour

// Lister exposes the current notification list. *notifications.Store
// implements it.
type Lister interface {
	Notifications() []notifications.Notification
}

// Ingester accepts synthesized reminders. *notifications.Manager implements
// it, so reminders reach toasts and popups like server pushes do.
type Ingester interface {
	Ingest(ctx context.Context, n notifications.Notification) (bool, error)
}

// Scheduler periodically derives client-side reminders from the
// notification list. Reminder ids embed the local date, so each reminder is
// ingested at most once per day and repeats are dropped by the store.
type Scheduler struct {
	source   Lister
	ingester Ingester
	interval time.Duration
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger

	mu    sync.Mutex
	cron  *gocron.Scheduler
	runMu sync.Mutex
}

type Option func(*Scheduler)

// WithInterval sets how often Check runs. Default one hour.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLocation sets the time zone that decides the reminder date. Default
// time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a stopped scheduler. Both source and ingester are required.
func New(source Lister, ingester Ingester, opts ...Option) (*Scheduler, error) {
	if source == nil || ingester == nil {
		return nil, ErrMissingDependency
	}
	s := &Scheduler{
		source:   source,
		ingester: ingester,
		interval: time.Hour,
		location: time.Local,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start runs Check right away and then every interval until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return ErrAlreadyStarted
	}

	cron := gocron.NewScheduler(s.location)
	cron.SingletonModeAll()
	if _, err := cron.Every(s.interval).Do(func() {
		if _, err := s.Check(ctx); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "reminder check failed", logger.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("reminders: schedule check: %w", err)
	}
	cron.StartAsync()
	s.cron = cron

	s.logger.LogAttrs(ctx, slog.LevelDebug, "reminder scheduler started", logger.Duration(s.interval))
	return nil
}

// Stop halts the schedule. It is safe to call when not started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cron := s.cron
	s.cron = nil
	s.mu.Unlock()

	if cron != nil {
		cron.Stop()
	}
}

// Running reports whether the schedule is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron != nil && s.cron.IsRunning()
}

// Check ingests the reminders that apply now and returns how many were new.
func (s *Scheduler) Check(ctx context.Context) (int, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	now := s.now().In(s.location)
	list := s.source.Notifications()

	var candidates []notifications.Notification
	if r, ok := pendingOpportunities(list, now); ok {
		candidates = append(candidates, r)
	}
	candidates = append(candidates, deadlineReminders(list, now)...)

	added := 0
	var errs []error
	for _, r := range candidates {
		ok, err := s.ingester.Ingest(ctx, r)
		if err != nil {
			errs = append(errs, fmt.Errorf("ingest %s: %w", r.ID, err))
			continue
		}
		if ok {
			added++
			s.logger.LogAttrs(ctx, slog.LevelDebug, "reminder ingested",
				logger.NotificationID(r.ID),
				logger.NotificationType(string(r.Type)),
			)
		}
	}
	return added, errors.Join(errs...)
}

func dayStamp(now time.Time) string {
	return now.Format("20060102")
}

// PendingOpportunitiesID is the id of the daily pending-opportunities
// reminder for the date of now.
func PendingOpportunitiesID(now time.Time) string {
	return "pending-opportunities-" + dayStamp(now)
}

func pendingOpportunities(list []notifications.Notification, now time.Time) (notifications.Notification, bool) {
	unread := 0
	for _, n := range list {
		if n.Type == notifications.TypeOpportunityNew && !n.Read {
			unread++
		}
	}
	if unread == 0 {
		return notifications.Notification{}, false
	}

	msg := "You have 1 new opportunity you haven't looked at yet"
	if unread > 1 {
		msg = fmt.Sprintf("You have %d new opportunities you haven't looked at yet", unread)
	}
	return notifications.Notification{
		ID:        PendingOpportunitiesID(now),
		Type:      notifications.TypePendingOpportunities,
		Title:     "Opportunities Waiting",
		Message:   msg,
		CreatedAt: now,
		Data:      notifications.Data{"url": "/opportunities", "count": unread},
		Local:     true,
	}, true
}

func deadlineReminders(list []notifications.Notification, now time.Time) []notifications.Notification {
	var out []notifications.Notification
	for _, n := range list {
		if n.Type != notifications.TypeDeadlineReminder {
			continue
		}
		deadline, ok := parseDeadline(n.Data["deadline"])
		if !ok {
			continue
		}
		left := deadline.Sub(now)
		if left <= 0 || left > DeadlineWindow {
			continue
		}

		data := notifications.Data{
			"deadline": deadline.Format(time.RFC3339),
			"priority": notifications.PriorityHigh.String(),
		}
		for _, key := range []string{"opportunityId", "url", "title"} {
			if v := n.Data.String(key); v != "" {
				data[key] = v
			}
		}

		title := n.Data.String("title")
		if title == "" {
			title = "An opportunity"
		}
		out = append(out, notifications.Notification{
			ID:        "application-reminder-" + n.ID + "-" + dayStamp(now),
			Type:      notifications.TypeApplicationReminder,
			Title:     "Application Reminder",
			Message:   fmt.Sprintf("%s closes in %s", title, humanizeLeft(left)),
			CreatedAt: now,
			Data:      data,
			Local:     true,
		})
	}
	return out
}

func humanizeLeft(d time.Duration) string {
	if d < time.Hour {
		m := max(int(d/time.Minute), 1)
		return fmt.Sprintf("%d min", m)
	}
	h := int(d / time.Hour)
	if h == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", h)
}

// parseDeadline accepts RFC 3339 strings and epoch milliseconds.
func parseDeadline(v any) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, val); err == nil {
			return t, true
		}
		if ms, err := strconv.ParseInt(val, 10, 64); err == nil {
			return time.UnixMilli(ms), true
		}
	case float64:
		return time.UnixMilli(int64(val)), true
	case int64:
		return time.UnixMilli(val), true
	case int:
		return time.UnixMilli(int64(val)), true
	}
	return time.Time{}, false
}

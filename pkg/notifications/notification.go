package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/herraise/hubclient/pkg/logger"
)

// Type is the closed set of notification kinds. Unknown tags from the server
// are mapped to TypeSystem by ParseType.
type Type string

const (
	TypeForumLike            Type = "forum_like"
	TypeForumComment         Type = "forum_comment"
	TypeForumQuestion        Type = "forum_question"
	TypeForumAnswer          Type = "forum_answer"
	TypeOpportunityNew       Type = "opportunity_new"
	TypeOpportunityUpdate    Type = "opportunity_update"
	TypeApplicationReminder  Type = "application_reminder"
	TypeApplicationNew       Type = "application_new"
	TypeApplicationStatus    Type = "application_status"
	TypeDeadlineReminder     Type = "deadline_reminder"
	TypeMentorshipRequest    Type = "mentorship_request"
	TypeSystem               Type = "system"
	TypePendingOpportunities Type = "pending_opportunities"
)

var knownTypes = map[Type]string{
	TypeForumLike:            "♥",
	TypeForumComment:         "✎",
	TypeForumQuestion:        "?",
	TypeForumAnswer:          "✓",
	TypeOpportunityNew:       "★",
	TypeOpportunityUpdate:    "↻",
	TypeApplicationReminder:  "⏰",
	TypeApplicationNew:       "✉",
	TypeApplicationStatus:    "⚑",
	TypeDeadlineReminder:     "⌛",
	TypeMentorshipRequest:    "☺",
	TypeSystem:               "•",
	TypePendingOpportunities: "★",
}

// ParseType normalizes a server-sent tag. Unknown or empty tags become TypeSystem.
func ParseType(s string) Type {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownTypes[t]; ok {
		return t
	}
	return TypeSystem
}

// Known reports whether t is one of the declared types.
func (t Type) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// Icon returns the glyph shown next to notifications of this type.
func (t Type) Icon() string {
	if icon, ok := knownTypes[t]; ok {
		return icon
	}
	return knownTypes[TypeSystem]
}

// Priority controls how prominently a notification is surfaced. The zero
// value is PriorityNormal.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityLow
	PriorityHigh
	PriorityCritical
)

// ParsePriority maps "low", "normal", "high" and "critical" (case-insensitive)
// to a Priority. Anything else is PriorityNormal.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	case "critical", "urgent":
		return PriorityCritical
	default:
		return PriorityNormal
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Data is the free-form payload attached to a notification.
type Data map[string]any

// String returns the value under key rendered as a string. Numbers are
// formatted without exponent so numeric ids survive.
func (d Data) String(key string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Priority reads the "priority" field.
func (d Data) Priority() Priority {
	return ParsePriority(d.String("priority"))
}

// Target returns the in-app route a notification navigates to, or "" when it
// carries no navigable target. An explicit "url" wins over derived routes.
func (d Data) Target() string {
	if u := d.String("url"); u != "" {
		return u
	}
	if id := d.String("opportunityId"); id != "" {
		return "/opportunities/" + id
	}
	if id := d.String("postId"); id != "" {
		return "/forum/posts/" + id
	}
	if id := d.String("questionId"); id != "" {
		return "/forum/posts/" + id
	}
	if id := d.String("applicationId"); id != "" {
		return "/applications/" + id
	}
	return ""
}

// Notification is a single record in the notification list.
type Notification struct {
	ID        string     `json:"id"`
	Type      Type       `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"createdAt"`
	Read      bool       `json:"isRead"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	Data      Data       `json:"data,omitempty"`
	Avatar    string     `json:"avatar,omitempty"`
	// Local marks client-synthesized records that the backend does not know.
	Local bool `json:"local,omitempty"`
}

// Priority is shorthand for n.Data.Priority().
func (n Notification) Priority() Priority {
	return n.Data.Priority()
}

// Target is shorthand for n.Data.Target().
func (n Notification) Target() string {
	return n.Data.Target()
}

func (n *Notification) markRead(at time.Time) {
	n.Read = true
	n.ReadAt = &at
}

// clone copies the record so callers cannot reach store internals through
// the Data map.
func (n Notification) clone() Notification {
	if n.Data != nil {
		data := make(Data, len(n.Data))
		for k, v := range n.Data {
			data[k] = v
		}
		n.Data = data
	}
	if n.ReadAt != nil {
		at := *n.ReadAt
		n.ReadAt = &at
	}
	return n
}

// wireNotification accepts the field spellings the backend uses.
type wireNotification struct {
	ID         string          `json:"id"`
	MongoID    string          `json:"_id"`
	Type       string          `json:"type"`
	Title      string          `json:"title"`
	Message    string          `json:"message"`
	CreatedAt  json.RawMessage `json:"createdAt"`
	IsRead     *bool           `json:"isRead"`
	ReadStatus *bool           `json:"readStatus"`
	ReadAt     json.RawMessage `json:"readAt"`
	Data       Data            `json:"data"`
	Avatar     string          `json:"avatar"`
	Local      bool            `json:"local"`
}

// UnmarshalJSON decodes either the canonical form or the backend form
// (`_id`, `readStatus`, epoch `createdAt`). A timestamp in an unknown format
// is left zero instead of failing the record.
func (n *Notification) UnmarshalJSON(b []byte) error {
	var w wireNotification
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	*n = Notification{
		ID:        w.ID,
		Type:      ParseType(w.Type),
		Title:     w.Title,
		Message:   w.Message,
		CreatedAt: timestampOrZero(w.CreatedAt),
		Data:      w.Data,
		Avatar:    w.Avatar,
		Local:     w.Local,
	}
	if n.ID == "" {
		n.ID = w.MongoID
	}
	if at := timestampOrZero(w.ReadAt); !at.IsZero() {
		n.ReadAt = &at
	}
	switch {
	case w.IsRead != nil:
		n.Read = *w.IsRead
	case w.ReadStatus != nil:
		n.Read = *w.ReadStatus
	}
	return nil
}

func timestampOrZero(raw json.RawMessage) time.Time {
	t, err := ParseTimestamp(raw)
	if err != nil {
		slog.Default().LogAttrs(context.Background(), slog.LevelDebug, "ignoring unparseable notification timestamp",
			slog.String("value", string(raw)),
			logger.Error(err),
		)
		return time.Time{}
	}
	return t
}

// Zone-less layouts are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.DateOnly,
}

// epochSecondsBelow separates epoch seconds from epoch milliseconds: a
// millisecond value this small would predate 1973.
const epochSecondsBelow = 1e11

// ParseTimestamp reads an ISO-8601 string (with or without zone) or an
// epoch number in milliseconds or seconds, integer or float, bare or quoted.
// null and "" give the zero time.
func ParseTimestamp(raw json.RawMessage) (time.Time, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return time.Time{}, nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return time.Time{}, err
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return time.Time{}, nil
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}
	if math.Abs(f) < epochSecondsBelow {
		f *= 1000
	}
	return time.UnixMilli(int64(f)).UTC(), nil
}

// Page is one page of server-side notification history.
type Page struct {
	Notifications []Notification `json:"notifications"`
	CurrentPage   int            `json:"currentPage"`
	TotalPages    int            `json:"totalPages"`
}

// HasMore reports whether pages after this one exist.
func (p Page) HasMore() bool {
	return p.CurrentPage < p.TotalPages
}

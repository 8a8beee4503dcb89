package socket

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/herraise/hubclient/pkg/notifications"
)

// Event kinds pushed by the backend.
const (
	KindOpportunityNew     = "opportunity:new"
	KindDeadlineReminder   = "opportunity:deadline_reminder"
	KindOpportunityUpdated = "opportunity:updated"
	KindForumNewQuestion   = "forum:new_question"
	KindForumNewAnswer     = "forum:new_answer"
	KindForumNewComment    = "forum:new_comment"
	KindForumPostLiked     = "forum:post_liked"
	KindApplicationStatus  = "application:status_update"
	KindApplicationNew     = "application:new"
	KindMentorshipRequest  = "mentorship:request"
	KindNotification       = "notification"
)

// Envelope is one text frame on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type kindDef struct {
	typ     notifications.Type
	title   string
	message func(d notifications.Data) string

	// targetKey receives the payload's own _id/id when it is missing, so
	// the notification can navigate to the object it is about.
	targetKey string
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

var kinds = map[string]kindDef{
	KindOpportunityNew: {
		typ:       notifications.TypeOpportunityNew,
		targetKey: "opportunityId",
		title:     "New Opportunity",
		message: func(d notifications.Data) string {
			if t := d.String("title"); t != "" {
				return fmt.Sprintf("%s is now open for applications", t)
			}
			return "A new opportunity has been posted"
		},
	},
	KindDeadlineReminder: {
		typ:       notifications.TypeDeadlineReminder,
		targetKey: "opportunityId",
		title:     "Deadline Approaching",
		message: func(d notifications.Data) string {
			if t := d.String("title"); t != "" {
				return fmt.Sprintf("The deadline for %s is coming up", t)
			}
			return "An opportunity deadline is coming up"
		},
	},
	KindOpportunityUpdated: {
		typ:       notifications.TypeOpportunityUpdate,
		targetKey: "opportunityId",
		title:     "Opportunity Updated",
		message: func(d notifications.Data) string {
			if t := d.String("title"); t != "" {
				return fmt.Sprintf("%s has been updated", t)
			}
			return "An opportunity you follow has been updated"
		},
	},
	KindForumNewQuestion: {
		typ:       notifications.TypeForumQuestion,
		targetKey: "postId",
		title:     "New Question",
		message: func(d notifications.Data) string {
			return orDefault(d.String("title"), "A new question was posted in the forum")
		},
	},
	KindForumNewAnswer: {
		typ:       notifications.TypeForumAnswer,
		targetKey: "postId",
		title:     "New Answer",
		message: func(d notifications.Data) string {
			if who := d.String("authorName"); who != "" {
				return fmt.Sprintf("%s answered your question", who)
			}
			return "Someone answered your question"
		},
	},
	KindForumNewComment: {
		typ:       notifications.TypeForumComment,
		targetKey: "postId",
		title:     "New Comment",
		message: func(d notifications.Data) string {
			if who := d.String("authorName"); who != "" {
				return fmt.Sprintf("%s commented on your post", who)
			}
			return "Someone commented on your post"
		},
	},
	KindForumPostLiked: {
		typ:       notifications.TypeForumLike,
		targetKey: "postId",
		title:     "Post Liked",
		message: func(d notifications.Data) string {
			if who := d.String("likerName"); who != "" {
				return fmt.Sprintf("%s liked your post", who)
			}
			return "Someone liked your post"
		},
	},
	KindApplicationStatus: {
		typ:       notifications.TypeApplicationStatus,
		targetKey: "applicationId",
		title:     "Application Update",
		message: func(d notifications.Data) string {
			if s := d.String("status"); s != "" {
				return fmt.Sprintf("Your application status changed to %s", s)
			}
			return "Your application status has changed"
		},
	},
	KindApplicationNew: {
		typ:       notifications.TypeApplicationNew,
		targetKey: "applicationId",
		title:     "New Application",
		message: func(d notifications.Data) string {
			if who := d.String("applicantName"); who != "" {
				return fmt.Sprintf("%s applied to your opportunity", who)
			}
			return "Someone applied to your opportunity"
		},
	},
	KindMentorshipRequest: {
		typ:   notifications.TypeMentorshipRequest,
		title: "Mentorship Request",
		message: func(d notifications.Data) string {
			if who := d.String("menteeName"); who != "" {
				return fmt.Sprintf("%s would like you to be their mentor", who)
			}
			return "You have a new mentorship request"
		},
	},
}

// Known reports whether kind is a recognized event kind.
func Known(kind string) bool {
	if kind == KindNotification {
		return true
	}
	_, ok := kinds[kind]
	return ok
}

// Decode turns one frame into a notification. ok is false for unknown
// kinds, which callers ignore. Frames without an id get a deterministic one
// derived from their content, so a frame delivered twice dedups in the store.
func Decode(frame []byte) (n notifications.Notification, ok bool, err error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return notifications.Notification{}, false, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	if env.Event == KindNotification {
		return decodeEnvelope(env)
	}

	def, known := kinds[env.Event]
	if !known {
		return notifications.Notification{}, false, nil
	}

	var data notifications.Data
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return notifications.Notification{}, false, fmt.Errorf("%w: %s: %w", ErrMalformedFrame, env.Event, err)
		}
	}

	if def.targetKey != "" && data.String(def.targetKey) == "" {
		if own := firstNonEmpty(data.String("_id"), data.String("id")); own != "" {
			data[def.targetKey] = own
		}
	}

	n = notifications.Notification{
		ID:      data.String("notificationId"),
		Type:    def.typ,
		Title:   def.title,
		Message: def.message(data),
		Data:    data,
		Avatar:  data.String("avatar"),
	}
	if n.ID == "" {
		n.ID = syntheticID(env)
	}
	return n, true, nil
}

func decodeEnvelope(env Envelope) (notifications.Notification, bool, error) {
	var n notifications.Notification
	if err := json.Unmarshal(env.Data, &n); err != nil {
		return notifications.Notification{}, false, fmt.Errorf("%w: notification: %w", ErrMalformedFrame, err)
	}
	if n.ID == "" {
		n.ID = syntheticID(env)
	}
	return n, true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func syntheticID(env Envelope) string {
	sum := sha256.Sum256(append([]byte(env.Event+"\x00"), env.Data...))
	return "evt-" + hex.EncodeToString(sum[:8])
}

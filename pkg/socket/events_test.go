package socket_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herraise/hubclient/pkg/notifications"
	"github.com/herraise/hubclient/pkg/socket"
)

func TestDecode_KnownKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		frame   string
		typ     notifications.Type
		title   string
		message string
		target  string
	}{
		{
			name:    "new opportunity uses own id as target",
			frame:   `{"event":"opportunity:new","data":{"_id":"op1","title":"Data Fellowship"}}`,
			typ:     notifications.TypeOpportunityNew,
			title:   "New Opportunity",
			message: "Data Fellowship is now open for applications",
			target:  "/opportunities/op1",
		},
		{
			name:    "deadline reminder",
			frame:   `{"event":"opportunity:deadline_reminder","data":{"opportunityId":"op2","title":"Grant"}}`,
			typ:     notifications.TypeDeadlineReminder,
			title:   "Deadline Approaching",
			message: "The deadline for Grant is coming up",
			target:  "/opportunities/op2",
		},
		{
			name:    "forum answer keeps explicit post id",
			frame:   `{"event":"forum:new_answer","data":{"id":"a9","postId":"p1","authorName":"Ama"}}`,
			typ:     notifications.TypeForumAnswer,
			title:   "New Answer",
			message: "Ama answered your question",
			target:  "/forum/posts/p1",
		},
		{
			name:    "post liked without liker",
			frame:   `{"event":"forum:post_liked","data":{"postId":"p3"}}`,
			typ:     notifications.TypeForumLike,
			title:   "Post Liked",
			message: "Someone liked your post",
			target:  "/forum/posts/p3",
		},
		{
			name:    "application status",
			frame:   `{"event":"application:status_update","data":{"applicationId":"ap1","status":"accepted"}}`,
			typ:     notifications.TypeApplicationStatus,
			title:   "Application Update",
			message: "Your application status changed to accepted",
			target:  "/applications/ap1",
		},
		{
			name:    "mentorship request has no target",
			frame:   `{"event":"mentorship:request","data":{"menteeName":"Kofi"}}`,
			typ:     notifications.TypeMentorshipRequest,
			title:   "Mentorship Request",
			message: "Kofi would like you to be their mentor",
		},
		{
			name:    "null data",
			frame:   `{"event":"forum:new_question","data":null}`,
			typ:     notifications.TypeForumQuestion,
			title:   "New Question",
			message: "A new question was posted in the forum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n, ok, err := socket.Decode([]byte(tt.frame))
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.typ, n.Type)
			assert.Equal(t, tt.title, n.Title)
			assert.Equal(t, tt.message, n.Message)
			assert.Equal(t, tt.target, n.Target())
			assert.NotEmpty(t, n.ID)
		})
	}
}

func TestDecode_IDs(t *testing.T) {
	t.Parallel()

	frame := []byte(`{"event":"opportunity:new","data":{"_id":"op1","title":"X"}}`)
	first, _, err := socket.Decode(frame)
	require.NoError(t, err)
	second, _, err := socket.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same frame must produce the same id")
	assert.Contains(t, first.ID, "evt-")

	other, _, err := socket.Decode([]byte(`{"event":"opportunity:new","data":{"_id":"op2","title":"X"}}`))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	explicit, _, err := socket.Decode([]byte(`{"event":"forum:new_comment","data":{"notificationId":"n-7","postId":"p"}}`))
	require.NoError(t, err)
	assert.Equal(t, "n-7", explicit.ID)
}

func TestDecode_NotificationEnvelope(t *testing.T) {
	t.Parallel()

	n, ok, err := socket.Decode([]byte(`{"event":"notification","data":{"_id":"n1","type":"forum_like","title":"Liked","message":"m","readStatus":false,"createdAt":1767225600000,"data":{"postId":"p1"}}}`))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "n1", n.ID)
	assert.Equal(t, notifications.TypeForumLike, n.Type)
	assert.False(t, n.Read)
	assert.Equal(t, "/forum/posts/p1", n.Target())
	assert.False(t, n.CreatedAt.IsZero())
}

func TestDecode_UnknownAndMalformed(t *testing.T) {
	t.Parallel()

	_, ok, err := socket.Decode([]byte(`{"event":"chat:typing","data":{}}`))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = socket.Decode([]byte(`not json`))
	assert.ErrorIs(t, err, socket.ErrMalformedFrame)

	_, _, err = socket.Decode([]byte(`{"event":"forum:new_answer","data":"oops"}`))
	assert.ErrorIs(t, err, socket.ErrMalformedFrame)

	assert.True(t, socket.Known(socket.KindNotification))
	assert.True(t, socket.Known(socket.KindApplicationNew))
	assert.False(t, socket.Known("chat:typing"))
}

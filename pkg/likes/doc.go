// Package likes implements the like/unlike control for forum posts and
// comments.
//
// A Control flips its state immediately on Toggle, sends the request through
// a Liker (normally *api.Client) and then either adopts the server's
// liked/likesCount or rolls back to the state before the click. Anonymous
// users are refused before any request is made.
//
//	ctrl, err := likes.NewControl(likes.TargetPost, "42",
//	    likes.State{Liked: false, Count: 10},
//	    client, holder.Current,
//	)
//	state, err := ctrl.Toggle(ctx)
//	if msg := likes.Message(err); msg != "" {
//	    showInline(msg)
//	}
package likes

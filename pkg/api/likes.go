package api

import (
	"context"
	"net/http"
	"net/url"
)

// LikeResult is the server's answer to a like toggle. Liked and LikesCount
// are nil when the server did not report them.
type LikeResult struct {
	Success    bool  `json:"success"`
	Liked      *bool `json:"liked,omitempty"`
	LikesCount *int  `json:"likesCount,omitempty"`
}

// Authoritative reports whether the result carries the full like state.
func (r LikeResult) Authoritative() bool {
	return r.Liked != nil && r.LikesCount != nil
}

// TogglePostLike flips the current user's like on a forum post.
func (c *Client) TogglePostLike(ctx context.Context, postID string) (LikeResult, error) {
	return c.toggleLike(ctx, "/api/forum/posts/", postID)
}

// ToggleCommentLike flips the current user's like on a comment.
func (c *Client) ToggleCommentLike(ctx context.Context, commentID string) (LikeResult, error) {
	return c.toggleLike(ctx, "/api/forum/comments/", commentID)
}

func (c *Client) toggleLike(ctx context.Context, prefix, id string) (LikeResult, error) {
	if id == "" {
		return LikeResult{}, ErrMissingID
	}
	var res LikeResult
	if err := c.do(ctx, http.MethodPost, prefix+url.PathEscape(id)+"/like", nil, nil, &res); err != nil {
		return LikeResult{}, err
	}
	return res, nil
}

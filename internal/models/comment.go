package models

import (
	"time"
)

// Comment represents a comment on an article
type Comment struct {
	ID        int64     `db:"id"`
	ArticleID int64     `db:"article_id"`
	AuthorID  int64     `db:"author_id"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Author *User `db:"-"`
}

// CommentInput is the payload for adding a comment
type CommentInput struct {
	Body string `json:"body"`
}

// CommentView is the response shape of a comment
type CommentView struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Author    Profile   `json:"author"`
}

// NewCommentView builds the response shape for c
func NewCommentView(c *Comment, followingAuthor bool) CommentView {
	return CommentView{
		ID:        c.ID,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Author:    NewProfile(c.Author, followingAuthor),
	}
}

// CommentResponse wraps a single comment with an optional message
type CommentResponse struct {
	Message string      `json:"message,omitempty"`
	Comment CommentView `json:"comment"`
}

// CommentsResponse wraps the comments of an article
type CommentsResponse struct {
	Comments []CommentView `json:"comments"`
}

// MaxCommentLength is the maximum allowed characters in a comment body
const MaxCommentLength = 5000

package models

import (
	"time"
)

// Article represents an article in the system
type Article struct {
	ID              int64     `db:"id"`
	Slug            string    `db:"slug"`
	Title           string    `db:"title"`
	Description     string    `db:"description"`
	Body            string    `db:"body"`
	TagList         []string  `db:"tag_list"`
	FavouritesCount int       `db:"favorites_count"`
	AuthorID        int64     `db:"author_id"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`

	// Author is populated by repository reads that join users
	Author *User `db:"-"`
}

// ArticleInput carries the fields accepted when creating an article
type ArticleInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	TagList     []string `json:"tagList"`
}

// ArticlePatch carries the optional fields of an article update.
// Nil fields are left untouched.
type ArticlePatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Body        *string   `json:"body"`
	TagList     *[]string `json:"tagList"`
}

// Apply merges the non-nil patch fields into a
func (p ArticlePatch) Apply(a *Article) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Body != nil {
		a.Body = *p.Body
	}
	if p.TagList != nil {
		a.TagList = NormalizeTags(*p.TagList)
	}
}

// NormalizeTags returns a non-nil tag list
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// ArticleView is the response shape of an article annotated for the current user
type ArticleView struct {
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Body            string    `json:"body"`
	TagList         []string  `json:"tagList"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Favourited      bool      `json:"favourited"`
	FavouritesCount int       `json:"favouritesCount"`
	Author          Profile   `json:"author"`
}

// NewArticleView builds the response shape for a
func NewArticleView(a *Article, favourited, followingAuthor bool) ArticleView {
	return ArticleView{
		Slug:            a.Slug,
		Title:           a.Title,
		Description:     a.Description,
		Body:            a.Body,
		TagList:         NormalizeTags(a.TagList),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		Favourited:      favourited,
		FavouritesCount: a.FavouritesCount,
		Author:          NewProfile(a.Author, followingAuthor),
	}
}

// ArticleResponse wraps a single article with an optional message
type ArticleResponse struct {
	Message string      `json:"message,omitempty"`
	Article ArticleView `json:"article"`
}

// ArticlesResponse is the listing/feed result.
// ArticlesCount is the total number of matches before limit/offset.
type ArticlesResponse struct {
	Articles      []ArticleView `json:"articles"`
	ArticlesCount int           `json:"articlesCount"`
}

// EmptyArticles is the zero-match listing result
func EmptyArticles() *ArticlesResponse {
	return &ArticlesResponse{Articles: []ArticleView{}, ArticlesCount: 0}
}

// ArticleQuery holds the recognized listing filters
type ArticleQuery struct {
	Author       string `form:"author" json:"author"`
	Tag          string `form:"tag" json:"tag"`
	FavouritedBy string `form:"favouritedBy" json:"favouritedBy"`
	Limit        int    `form:"limit" json:"limit"`
	Offset       int    `form:"offset" json:"offset"`
}

// ArticleFilter is the resolved, store-level form of an ArticleQuery
type ArticleFilter struct {
	AuthorIDs  []int64
	ArticleIDs []int64
	Tag        string
	Limit      int
	Offset     int
}

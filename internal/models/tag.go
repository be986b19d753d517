package models

// TagsResponse lists the known tags
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// Follow is a directed edge: FollowerID follows FollowingID
type Follow struct {
	FollowerID  int64 `db:"follower_id"`
	FollowingID int64 `db:"following_id"`
}

// Favorite is a (user, article) membership
type Favorite struct {
	UserID    int64 `db:"user_id"`
	ArticleID int64 `db:"article_id"`
}

// Stats holds record counts per resource
type Stats struct {
	Users    int `json:"users"`
	Articles int `json:"articles"`
	Comments int `json:"comments"`
}

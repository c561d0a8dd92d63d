package model

// FeedItem is an activity record annotated with its owner's display name.
type FeedItem struct {
	ActivityRecord
	UserName string `json:"user_name"`
}

type FeedResponse struct {
	Items []FeedItem `json:"items"`
}

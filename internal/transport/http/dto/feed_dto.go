package dto

type FeedSponsorCardResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	AssetURL string `json:"asset_url"`
	ClickURL string `json:"click_url"`
}

type FeedItemResponse struct {
	IsSponsor   bool                     `json:"is_sponsor"`
	Sponsor     *FeedSponsorCardResponse `json:"sponsor,omitempty"`
	ProfileID   string                   `json:"profile_id,omitempty"`
	DisplayName string                   `json:"display_name,omitempty"`
	Bio         string                   `json:"bio,omitempty"`
	Category    string                   `json:"category,omitempty"`
	PhotoURL    string                   `json:"photo_url,omitempty"`
	Online      bool                     `json:"online,omitempty"`
}

type FeedResponse struct {
	Items      []FeedItemResponse `json:"items"`
	NextCursor string             `json:"next_cursor,omitempty"`
	HasMore    bool               `json:"has_more"`
	Degraded   bool               `json:"degraded,omitempty"`
}

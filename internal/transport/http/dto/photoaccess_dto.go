package dto

import "time"

type PhotoAccessRequestRequest struct {
	OwnerID string `json:"owner_id"`
	PhotoID string `json:"photo_id"`
}

type PhotoAccessDecideRequest struct {
	Approve  bool   `json:"approve"`
	Duration string `json:"duration,omitempty"`
}

type PhotoAccessRequestResponse struct {
	ID          string     `json:"id"`
	RequesterID string     `json:"requester_id"`
	OwnerID     string     `json:"owner_id"`
	PhotoID     string     `json:"photo_id"`
	Status      string     `json:"status"`
	Duration    string     `json:"duration,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ViewsLeft   *int       `json:"views_left,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type PhotoAccessCheckResponse struct {
	Decision string `json:"decision"`
	URL      string `json:"url,omitempty"`
}

type GalleryPhotoResponse struct {
	ID         string `json:"id"`
	Visibility string `json:"visibility"`
	Decision   string `json:"decision"`
	URL        string `json:"url,omitempty"`
}

type GalleryResponse struct {
	Photos []GalleryPhotoResponse `json:"photos"`
}

type IncomingRequestsResponse struct {
	Requests []PhotoAccessRequestResponse `json:"requests"`
}

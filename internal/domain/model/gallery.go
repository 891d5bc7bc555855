package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DaniDitu/LoveLink-sub000/internal/domain/enums"
)

type GalleryPhoto struct {
	ID         string           `json:"id"`
	ObjectKey  string           `json:"object_key"`
	Visibility enums.Visibility `json:"visibility"`
	CreatedAt  time.Time        `json:"created_at"`
}

// MigrateLegacyPhotos converts the old flat URL list into a structured
// gallery. Legacy photos were always public; order is preserved.
func MigrateLegacyPhotos(urls []string, at time.Time) []GalleryPhoto {
	out := make([]GalleryPhoto, 0, len(urls))
	for _, raw := range urls {
		key := strings.TrimSpace(raw)
		if key == "" {
			continue
		}
		out = append(out, GalleryPhoto{
			ID:         uuid.NewString(),
			ObjectKey:  key,
			Visibility: enums.VisibilityPublic,
			CreatedAt:  at,
		})
	}
	return out
}

func FindGalleryPhoto(gallery []GalleryPhoto, photoID string) (GalleryPhoto, bool) {
	for _, photo := range gallery {
		if photo.ID == photoID {
			return photo, true
		}
	}
	return GalleryPhoto{}, false
}

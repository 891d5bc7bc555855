package enums

type ProfileStatus string

const (
	ProfileStatusActive    ProfileStatus = "active"
	ProfileStatusSuspended ProfileStatus = "suspended"
	ProfileStatusBanned    ProfileStatus = "banned"
	ProfileStatusDeleted   ProfileStatus = "deleted"
)

type CategoryKind string

const (
	CategorySingle CategoryKind = "single"
	CategoryCouple CategoryKind = "couple"
)

func (k CategoryKind) Valid() bool {
	return k == CategorySingle || k == CategoryCouple
}

package enums

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

type AccessDuration string

const (
	AccessPermanent      AccessDuration = "permanent"
	AccessTwentyFourHour AccessDuration = "24h"
	AccessOneTime        AccessDuration = "one_time"
)

func (d AccessDuration) Valid() bool {
	switch d {
	case AccessPermanent, AccessTwentyFourHour, AccessOneTime:
		return true
	}
	return false
}

package enums

import "time"

type SelfDestruct string

const (
	SelfDestructNone SelfDestruct = "none"
	SelfDestruct30s  SelfDestruct = "30s"
	SelfDestruct60s  SelfDestruct = "60s"
)

func (s SelfDestruct) Window() time.Duration {
	switch s {
	case SelfDestruct30s:
		return 30 * time.Second
	case SelfDestruct60s:
		return 60 * time.Second
	default:
		return 0
	}
}

func (s SelfDestruct) Valid() bool {
	switch s {
	case SelfDestructNone, SelfDestruct30s, SelfDestruct60s, "":
		return true
	}
	return false
}

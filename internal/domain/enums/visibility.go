package enums

type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilitySecret      Visibility = "secret"
	VisibilitySuperSecret Visibility = "super_secret"
)

// GateRank orders tiers by how much gating they require:
// public < secret < super_secret.
func (v Visibility) GateRank() int {
	switch v {
	case VisibilityPublic:
		return 0
	case VisibilitySecret:
		return 1
	case VisibilitySuperSecret:
		return 2
	default:
		return 2
	}
}

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilitySecret, VisibilitySuperSecret:
		return true
	}
	return false
}

package document

import "slices"

// CanView reports whether the user may read the document: the owner, anyone
// when the document is public, and users it was explicitly shared with.
func CanView(userID string, d *Document) bool {
	if d == nil {
		return false
	}
	return d.OwnerID == userID || d.IsPublic || slices.Contains(d.SharedWith, userID)
}

// Visibility is the declarative form of CanView for bulk queries. The store
// facade translates it into a SQL restriction; Matches is the in-memory
// equivalent. A nil *Visibility means no restriction (internal scans only).
type Visibility struct {
	UserID string
}

// Predicate builds the visibility restriction for a user. Predicate(u).Matches
// is equivalent to CanView(u, ·) by construction and by test.
func Predicate(userID string) *Visibility {
	return &Visibility{UserID: userID}
}

// Matches reports whether the document is visible under this restriction.
func (v *Visibility) Matches(d *Document) bool {
	if v == nil {
		return true
	}
	return CanView(v.UserID, d)
}

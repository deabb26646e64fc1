package storage

import (
	"fmt"
	"strconv"

	"github.com/radiusdt/dsp-console/internal/models"
)

// Visibility is the single campaign scoping rule: managers see every
// campaign, everyone else sees the campaigns they own. Every listing,
// report fetch and dashboard reducer goes through it.
type Visibility struct {
	all    bool
	userID int64
}

// VisibilityFor derives the scope of an actor.
func VisibilityFor(a models.Actor) Visibility {
	if a.Manager {
		return Visibility{all: true}
	}
	return Visibility{userID: a.UserID}
}

// AllCampaigns is the unrestricted scope.
func AllCampaigns() Visibility { return Visibility{all: true} }

// Allows reports whether c is inside the scope.
func (v Visibility) Allows(c *models.Campaign) bool {
	if v.all {
		return true
	}
	return c.OwnedBy(v.userID)
}

// Where renders the scope as a SQL predicate on column, using placeholder
// $n when an argument is needed.
func (v Visibility) Where(column string, n int) (string, []any) {
	if v.all {
		return "TRUE", nil
	}
	return fmt.Sprintf("%s = $%d", column, n), []any{v.userID}
}

// Key identifies the scope in cache keys.
func (v Visibility) Key() string {
	if v.all {
		return "all"
	}
	return "u" + strconv.FormatInt(v.userID, 10)
}

package sqlxrepos

import "github.com/trezcool/darasa/core"

// Fixed listing orders. Repositories append these to their SELECTs so the
// order each listing guarantees is declared in one place.
var (
	courseOrdering     = core.DBOrdering{Field: "c.created_at", Ascending: true}
	enrollmentOrdering = core.DBOrdering{Field: "e.created_at", Ascending: true}
	assignmentOrdering = core.DBOrdering{Field: "a.due_date", Ascending: true}
	submissionOrdering = core.DBOrdering{Field: "s.submitted_at"}
	discussionOrdering = core.DBOrdering{Field: "d.created_at"}
	commentOrdering    = core.DBOrdering{Field: "cm.created_at", Ascending: true}
	userOrdering       = core.DBOrdering{Field: "created_at", Ascending: true}
)

func orderBy(ord core.DBOrdering) string {
	return ` ORDER BY ` + ord.String()
}

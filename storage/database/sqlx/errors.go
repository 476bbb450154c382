package sqlxrepos

import (
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const uniqueViolationCode = "23505"

// violatedConstraint returns the name of the violated unique constraint, if any.
// Unique constraints are the authoritative guard against concurrent duplicate
// writes; callers translate the constraint name into the domain conflict error.
func violatedConstraint(err error) (string, bool) {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolationCode {
		return pqErr.Constraint, true
	}
	return "", false
}

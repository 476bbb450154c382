package core

// DBOrdering is an ORDER BY term. Repositories declare the fixed order of
// each listing as a DBOrdering value rather than burying it in SQL strings.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

package types

import "strings"

// DefaultColumns are the columns every project board starts with.
var DefaultColumns = []string{StatusUnscheduled, StatusScheduled, StatusShot, StatusEdit}

// AddOutcome reports what ColumnSet.Add did.
type AddOutcome int

const (
	ColumnAdded AddOutcome = iota
	ColumnDuplicate
)

func (o AddOutcome) String() string {
	if o == ColumnDuplicate {
		return "duplicate"
	}
	return "added"
}

// ColumnSet is an ordered set of board column identifiers. Membership is
// case-insensitive; the stored spelling is the one first added.
type ColumnSet struct {
	names []string
	index map[string]int
}

// NewColumnSet builds a set from names in order. Blank names and
// duplicates are skipped.
func NewColumnSet(names ...string) *ColumnSet {
	cs := &ColumnSet{index: make(map[string]int, len(names))}
	for _, n := range names {
		_, _ = cs.Add(n)
	}
	return cs
}

// Add appends name after trimming surrounding whitespace. Adding a name
// already present (in any casing) leaves the set unchanged and returns
// ColumnDuplicate. A blank name returns ErrInvalidName.
func (cs *ColumnSet) Add(name string) (AddOutcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ColumnDuplicate, ErrInvalidName
	}
	if cs.index == nil {
		cs.index = make(map[string]int)
	}
	key := strings.ToLower(name)
	if _, ok := cs.index[key]; ok {
		return ColumnDuplicate, nil
	}
	cs.index[key] = len(cs.names)
	cs.names = append(cs.names, name)
	return ColumnAdded, nil
}

// Contains reports whether name is a column. Exact spelling is required
// so that scene statuses always match a column identifier verbatim.
func (cs *ColumnSet) Contains(name string) bool {
	if cs == nil {
		return false
	}
	i, ok := cs.index[strings.ToLower(name)]
	return ok && cs.names[i] == name
}

// Names returns the columns in insertion order.
func (cs *ColumnSet) Names() []string {
	if cs == nil {
		return nil
	}
	return cloneStrings(cs.names)
}

// Len returns the number of columns.
func (cs *ColumnSet) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.names)
}

// Package retention decides which historical package versions a project
// keeps. One Group holds every filename sharing a version, so architecture
// variants always live or die together.
package retention

// Group is one distinct version of a project's packages together with all
// filenames carrying it.
type Group struct {
	Key       string
	Filenames []string
}

// Select splits version groups into the retained and pruned sets. Input
// must be sorted newest first. The newest version is always retained, even
// with keep == 0, so a project with at least one fetched release always has
// a current package; up to keep additional versions follow, everything
// older is pruned.
func Select(groupsNewestFirst []Group, keep int) (retain, prune []Group) {
	if len(groupsNewestFirst) == 0 {
		return nil, nil
	}
	if keep < 0 {
		keep = 0
	}
	cut := keep + 1
	if cut > len(groupsNewestFirst) {
		cut = len(groupsNewestFirst)
	}
	return groupsNewestFirst[:cut], groupsNewestFirst[cut:]
}

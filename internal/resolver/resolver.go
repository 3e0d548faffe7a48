package resolver

import (
	"fmt"

	"github.com/garyellow/vyatsu-schedule/internal/directory"
	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
)

// Resolver turns a user query into a single directory entity.
type Resolver struct {
	defaultLevel rune
}

// New creates a resolver that assumes defaultLevel when a group name omits
// the education level letter.
func New(defaultLevel rune) *Resolver {
	return &Resolver{defaultLevel: defaultLevel}
}

// Resolve tries the query as a group name first, then as an instructor.
// No match yields ErrInvalidName; several instructors yield
// *errors.AmbiguousMatchError listing them.
func (r *Resolver) Resolve(snap *directory.Snapshot, query string) (directory.Entity, error) {
	if g := Canonicalize(snap, query, r.defaultLevel); g != "" {
		return directory.Group(g), nil
	}

	found := FindInstructor(snap, query)
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %q", domerrors.ErrInvalidName, query)
	case 1:
		return found[0], nil
	}

	candidates := make([]domerrors.Candidate, len(found))
	for i, in := range found {
		candidates[i] = domerrors.Candidate{Name: in.Name, Scope: in.Department}
	}
	return nil, domerrors.NewAmbiguousMatchError(query, candidates)
}

// Instructor validates a caller-chosen candidate against the directory.
func (r *Resolver) Instructor(snap *directory.Snapshot, c domerrors.Candidate) (directory.Instructor, error) {
	in := directory.Instructor{Name: c.Name, Department: c.Scope}
	if !snap.HasInstructor(in) {
		return directory.Instructor{}, fmt.Errorf("%w: %q in %q", domerrors.ErrInvalidName, c.Name, c.Scope)
	}
	return in, nil
}

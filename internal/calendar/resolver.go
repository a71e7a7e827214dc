package calendar

import (
	"fmt"

	"github.com/bentwick/crewcal/internal/model"
)

// Scope selects how far a mutation of one occurrence reaches into its
// series.
type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeFuture Scope = "future"
	ScopeAll    Scope = "all"
)

// ParseScope maps the request keyword onto a Scope. Empty defaults to
// single; anything else unknown is rejected.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "":
		return ScopeSingle, nil
	case ScopeSingle, ScopeFuture, ScopeAll:
		return Scope(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
}

// resolution is the outcome of scope resolution: the rows a mutation
// touches, in ascending date order, and the series config id when the
// whole series is in scope.
type resolution struct {
	target      *model.Occurrence
	occurrences []model.Occurrence
	seriesID    *int64
}

// resolveScope finds the occurrences affected by a scoped mutation of
// the target id. A standalone occurrence resolves to itself under every
// scope. Returns ErrOccurrenceNotFound when the id does not exist for
// the tenant.
func (s *Service) resolveScope(tenantID, occurrenceID int64, scope Scope) (*resolution, error) {
	target, err := s.occurrences.GetByID(tenantID, occurrenceID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrOccurrenceNotFound
	}

	res := &resolution{target: target}

	if scope == ScopeSingle || target.SeriesID == nil {
		res.occurrences = []model.Occurrence{*target}
		return res, nil
	}

	siblings, err := s.occurrences.ListBySeries(tenantID, *target.SeriesID)
	if err != nil {
		return nil, err
	}

	switch scope {
	case ScopeFuture:
		// Day granularity: the target's own date is always included, so
		// same-day siblings ride along.
		for _, o := range siblings {
			if o.Date >= target.Date {
				res.occurrences = append(res.occurrences, o)
			}
		}
	case ScopeAll:
		res.occurrences = siblings
		res.seriesID = target.SeriesID
	}
	return res, nil
}

package query

import (
	"context"

	"git.canoozie.net/riddling/graphpath/pkg/graphpath"
	"git.canoozie.net/riddling/graphpath/pkg/model"
)

// Decision tells the enumerator what to do with a candidate path. The
// accept bit controls whether the path is emitted; the continue bit
// controls whether it is expanded further.
type Decision uint8

const (
	// Defer expresses no opinion. On its own it behaves like AcceptContinue.
	Defer Decision = iota
	AcceptContinue
	AcceptStop
	RejectContinue
	RejectStop
)

func decisionOf(accept, cont bool) Decision {
	switch {
	case accept && cont:
		return AcceptContinue
	case accept:
		return AcceptStop
	case cont:
		return RejectContinue
	default:
		return RejectStop
	}
}

// Accepts reports whether the path should be emitted
func (d Decision) Accepts() bool {
	return d == Defer || d == AcceptContinue || d == AcceptStop
}

// Continues reports whether the path should be expanded
func (d Decision) Continues() bool {
	return d == Defer || d == AcceptContinue || d == RejectContinue
}

func (d Decision) String() string {
	switch d {
	case Defer:
		return "DEFER"
	case AcceptContinue:
		return "ACCEPT_CONTINUE"
	case AcceptStop:
		return "ACCEPT_STOP"
	case RejectContinue:
		return "REJECT_CONTINUE"
	case RejectStop:
		return "REJECT_STOP"
	default:
		return "UNKNOWN"
	}
}

// Filter decides the fate of a candidate path. A nil Filter accepts and
// continues everything.
type Filter func(path graphpath.ResolvedPath) Decision

// PropertyFilter decides whether the enumerator may step over property
// from the last node of path. A nil PropertyFilter allows every property.
type PropertyFilter func(path graphpath.ResolvedPath, property string) bool

// Conjoin combines filters evaluated in order. A RejectStop ends the
// evaluation immediately. Otherwise the result accepts only if every
// opinionated filter accepts and continues only if every one continues;
// Defer results are ignored, and if all filters defer so does the result.
func Conjoin(filters ...Filter) Filter {
	active := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}
	if len(active) == 1 {
		return active[0]
	}
	return func(path graphpath.ResolvedPath) Decision {
		accept, cont, seen := true, true, false
		for _, f := range active {
			d := f(path)
			switch d {
			case Defer:
				continue
			case RejectStop:
				return RejectStop
			}
			seen = true
			accept = accept && d.Accepts()
			cont = cont && d.Continues()
		}
		if !seen {
			return Defer
		}
		return decisionOf(accept, cont)
	}
}

// MaxPathLength limits paths to n edges
func MaxPathLength(n int) Filter {
	return func(path graphpath.ResolvedPath) Decision {
		length := path.Path().EdgeCount()
		switch {
		case length > n:
			return RejectStop
		case length == n:
			return AcceptStop
		default:
			return AcceptContinue
		}
	}
}

// StopAtNodeMatching stops expanding paths whose last node satisfies match
func StopAtNodeMatching(match func(node model.Node) bool) Filter {
	return func(path graphpath.ResolvedPath) Decision {
		if match(path.LastNode()) {
			return AcceptStop
		}
		return AcceptContinue
	}
}

// StopAtNode stops expanding paths that reach target
func StopAtNode(target model.Node) Filter {
	return StopAtNodeMatching(func(node model.Node) bool {
		return node == target
	})
}

// StopAtNodes stops expanding paths that reach any of targets
func StopAtNodes(targets ...model.Node) Filter {
	set := make(map[model.Node]struct{}, len(targets))
	for _, target := range targets {
		set[target] = struct{}{}
	}
	return StopAtNodeMatching(func(node model.Node) bool {
		_, ok := set[node]
		return ok
	})
}

// StopAtAddressable stops expanding paths that reach a node with its own
// global address. The start node of a path is never tested.
func StopAtAddressable(ns graphpath.Namespace) Filter {
	return func(path graphpath.ResolvedPath) Decision {
		if path.NodeCount() > 1 && ns.IsAddressable(path.LastNode()) {
			return AcceptStop
		}
		return AcceptContinue
	}
}

// UntilDone rejects and stops every path once ctx is done, which drains the
// frontier without emitting anything further
func UntilDone(ctx context.Context) Filter {
	return func(graphpath.ResolvedPath) Decision {
		if ctx.Err() != nil {
			return RejectStop
		}
		return Defer
	}
}

// ExcludeProperties forbids stepping over the named properties
func ExcludeProperties(properties ...string) PropertyFilter {
	excluded := stringSet(properties)
	return func(_ graphpath.ResolvedPath, property string) bool {
		_, ok := excluded[property]
		return !ok
	}
}

// OnlyProperties allows stepping over the named properties only
func OnlyProperties(properties ...string) PropertyFilter {
	allowed := stringSet(properties)
	return func(_ graphpath.ResolvedPath, property string) bool {
		_, ok := allowed[property]
		return ok
	}
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

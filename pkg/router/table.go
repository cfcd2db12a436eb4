package router

import (
	"github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/routepath"
)

// routeTable keeps routes keyed by their literal path, in insertion order.
// Re-registering a path replaces the route in place.
type routeTable struct {
	routes []*Route
	index  map[string]int
}

func (t *routeTable) add(rt *Route) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[rt.Path]; ok {
		t.routes[i] = rt
		return
	}
	t.index[rt.Path] = len(t.routes)
	t.routes = append(t.routes, rt)
}

func (t *routeTable) snapshot() []*Route {
	return append([]*Route(nil), t.routes...)
}

func (t *routeTable) reset() {
	t.routes = nil
	t.index = nil
}

// match attempts a structural match of the route against a normalized path.
//
// With differing segment counts the route matches only when its pattern has
// a "*" segment somewhere, and then binds nothing. With equal counts every
// ":name" segment binds the decoded path segment and every other segment,
// "*" included, must equal the path segment exactly.
func (rt *Route) match(segments []string) (map[string]string, bool, error) {
	if len(rt.segments) != len(segments) {
		if rt.wildcard {
			return map[string]string{}, true, nil
		}
		return nil, false, nil
	}

	params := make(map[string]string, len(rt.ParamNames))
	for i, seg := range rt.segments {
		actual := segments[i]
		if routepath.IsParam(seg) {
			decoded, err := routepath.DecodeParam(actual)
			if err != nil {
				return nil, false, errors.New("R002").
					WithDetailf("segment %q for parameter %q", actual, seg[1:]).
					Wrap(err)
			}
			params[seg[1:]] = decoded
			continue
		}
		if seg != actual {
			return nil, false, nil
		}
	}
	return params, true, nil
}

// resolve matches raw against routes in order, falling back to notFound.
func resolve(routes []*Route, notFound *Route, raw string) (*ResolvedRoute, error) {
	path, rawQuery := routepath.SplitPathAndQuery(raw)
	normalized := routepath.Normalize(path)
	href := normalized
	if rawQuery != "" {
		href += "?" + rawQuery
	}
	segments := routepath.Segments(normalized)

	for _, rt := range routes {
		params, ok, err := rt.match(segments)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		return &ResolvedRoute{
			Path:    rt.Path,
			URL:     normalized,
			Href:    href,
			Handler: rt.Handler,
			Options: rt.Options,
			Params:  params,
			Query:   routepath.ParseQuery(rawQuery),
		}, nil
	}

	if notFound != nil {
		return &ResolvedRoute{
			Path:    notFound.Path,
			URL:     normalized,
			Href:    href,
			Handler: notFound.Handler,
			Options: notFound.Options,
			Params:  map[string]string{"path": normalized},
			Query:   map[string]string{},
		}, nil
	}

	return nil, errors.New("R001").
		WithDetail(normalized).
		WithSuggestion("Register the path with r.Route or a fallback with r.NotFound").
		Wrap(ErrRouteNotFound)
}

package model

import (
	"reflect"
	"time"
)

// Extensions is a type-keyed property bag: at most one value per distinct
// type. The transport resolves the policy types below out of it; values of
// any other type are carried opaquely and ignored.
//
// The zero value is ready to use. Access goes through PutExtension and
// GetExtension since Go methods cannot carry their own type parameters.
type Extensions struct {
	values map[reflect.Type]interface{}
}

// PutExtension stores v, overwriting any previous value of the same type.
func PutExtension[T any](e *Extensions, v T) {
	if e.values == nil {
		e.values = make(map[reflect.Type]interface{}, 2)
	}
	e.values[reflect.TypeOf((*T)(nil)).Elem()] = v
}

// GetExtension retrieves the stored value of type T, if any.
func GetExtension[T any](e *Extensions) (T, bool) {
	v, ok := e.values[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// RedirectMode selects how the engine treats 3xx responses.
type RedirectMode int

const (
	RedirectNoFollow RedirectMode = iota
	RedirectFollowLimit
	RedirectFollowAll
)

// RedirectPolicy is a request extension controlling redirect handling.
// Without it the engine's default policy applies.
type RedirectPolicy struct {
	Mode  RedirectMode
	Limit int // hop budget, meaningful for RedirectFollowLimit only
}

func NoFollow() RedirectPolicy {
	return RedirectPolicy{Mode: RedirectNoFollow}
}

func FollowLimit(n int) RedirectPolicy {
	return RedirectPolicy{Mode: RedirectFollowLimit, Limit: n}
}

func FollowAll() RedirectPolicy {
	return RedirectPolicy{Mode: RedirectFollowAll}
}

// ReadTimeout is a request extension bounding the whole exchange,
// including reading the response body.
type ReadTimeout time.Duration

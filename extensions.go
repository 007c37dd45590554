package httpbridge

import "github.com/strandline/httpbridge/internal/model"

// Extensions is the type-keyed property bag attached to a Request. The
// transport recognizes RedirectPolicy and ReadTimeout; values of any
// other type ride along untouched.
type Extensions = model.Extensions

// PutExtension stores v in the bag, overwriting any previous value of the
// same type.
func PutExtension[T any](e *Extensions, v T) { model.PutExtension(e, v) }

// GetExtension retrieves the stored value of type T, if any.
func GetExtension[T any](e *Extensions) (T, bool) { return model.GetExtension[T](e) }

type RedirectPolicy = model.RedirectPolicy
type RedirectMode = model.RedirectMode

const (
	RedirectNoFollow    = model.RedirectNoFollow
	RedirectFollowLimit = model.RedirectFollowLimit
	RedirectFollowAll   = model.RedirectFollowAll
)

func NoFollow() RedirectPolicy { return model.NoFollow() }

func FollowLimit(n int) RedirectPolicy { return model.FollowLimit(n) }

func FollowAll() RedirectPolicy { return model.FollowAll() }

// ReadTimeout bounds one exchange, including reading the response body.
type ReadTimeout = model.ReadTimeout

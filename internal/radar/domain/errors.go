package radar

import "errors"

// ErrAssetNotFound indicates a risk query for an asset outside the tracked universe.
var ErrAssetNotFound = errors.New("radar: asset not tracked")

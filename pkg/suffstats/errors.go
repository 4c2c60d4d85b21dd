package suffstats

import "errors"

// ErrSerializationMismatch is returned when Decode reads a payload whose
// version or bounds fail sanity checks. It is fatal for that file; the
// caller must re-initialize rather than trust partially decoded state.
var ErrSerializationMismatch = errors.New("suffstats: serialization mismatch")

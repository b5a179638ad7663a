package auth

import "github.com/devilmonastery/cvforge/internal/pkg/urlutil"

// DefaultTarget is where users land after login when nothing else was requested
const DefaultTarget = "/tool"

// RedirectTarget returns the path the user asked for before logging in.
// Anything that is not a same-origin path falls back to DefaultTarget.
func RedirectTarget(saved string) string {
	if !urlutil.IsLocalPath(saved) {
		return DefaultTarget
	}
	return saved
}

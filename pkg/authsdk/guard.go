package authsdk

// Route names used by the console's router.
const (
	RouteSignIn    = "/signin"
	RouteTwoFactor = "/2fa"
	RouteHome      = "/home"
)

// LandingRoute picks where "/" should send the user for the given snapshot.
func LandingRoute(snap Snapshot) string {
	switch snap.State {
	case StateAuthorized:
		return RouteHome
	case StateTwoFactorPending:
		return RouteTwoFactor
	default:
		return RouteSignIn
	}
}

// AllowProtected gates views that need a signed-in user.
func AllowProtected(snap Snapshot) bool {
	return snap.State == StateAuthorized
}

// AllowTwoFactor gates the code entry view.
func AllowTwoFactor(snap Snapshot) bool {
	return snap.State == StateTwoFactorPending
}

// AllowRole gates views restricted to a minimum role, e.g. the moderator
// dashboard (RoleModerator) or the admin panel (RoleAdmin).
func AllowRole(snap Snapshot, minRole Role) bool {
	return AllowProtected(snap) && snap.Role.AtLeast(minRole)
}

// Redirect returns the route a guarded view should redirect to, or "" if the
// view may render.
func Redirect(snap Snapshot, allowed bool) string {
	if allowed {
		return ""
	}
	if snap.State == StateAuthorized {
		return RouteHome
	}
	return RouteSignIn
}

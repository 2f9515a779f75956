package session

// Decision is the outcome of an authorization check for a guarded view.
type Decision int

const (
	// DecisionWait means the store is still initializing; render a neutral
	// placeholder, decide nothing yet.
	DecisionWait Decision = iota
	// DecisionSignIn means there is no session; redirect to sign-in.
	DecisionSignIn
	// DecisionRedirect means the session lacks every required role; silently
	// redirect to the default page, not an error page.
	DecisionRedirect
	// DecisionAllow renders the guarded content.
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionWait:
		return "wait"
	case DecisionSignIn:
		return "sign-in"
	case DecisionRedirect:
		return "redirect"
	case DecisionAllow:
		return "allow"
	}
	return "unknown"
}

// Authorize decides render-vs-redirect for a guarded view from the current
// state and the view's required roles. It is pure and must be re-evaluated on
// every state change, not just once: a sign-out while viewing an admin page
// immediately turns into a redirect.
func Authorize(st State, required ...string) Decision {
	if st.Loading {
		return DecisionWait
	}
	if st.Session == nil {
		return DecisionSignIn
	}
	if len(required) > 0 && !st.HasAnyRole(required...) {
		return DecisionRedirect
	}
	return DecisionAllow
}

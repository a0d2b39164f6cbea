package auth

import (
	"fmt"
	"net/url"

	"github.com/spec-kit/library-gateway/internal/domain"
)

// DecisionKind enumerates gateway outcomes.
type DecisionKind int

const (
	Continue DecisionKind = iota
	Redirect
	ContinueAndClear
	RedirectAndClear
)

func (k DecisionKind) String() string {
	switch k {
	case Continue:
		return "continue"
	case Redirect:
		return "redirect"
	case ContinueAndClear:
		return "continue_and_clear"
	case RedirectAndClear:
		return "redirect_and_clear"
	default:
		return fmt.Sprintf("decision(%d)", int(k))
	}
}

// Decision is the gateway verdict for one request.
type Decision struct {
	Kind     DecisionKind
	Location string
	// Rule is the row of the decision table that matched (1-8).
	Rule int
}

// Redirects reports whether the caller must be sent to Location.
func (d Decision) Redirects() bool {
	return d.Kind == Redirect || d.Kind == RedirectAndClear
}

// ClearsCredential reports whether the stored credential must be dropped.
func (d Decision) ClearsCredential() bool {
	return d.Kind == ContinueAndClear || d.Kind == RedirectAndClear
}

// CredentialVerifier is the codec the gateway depends on.
type CredentialVerifier interface {
	Verify(raw string) (*Claims, error)
}

const loginPath = "/login"

// Gateway applies the redirect decision table. It keeps no per-request
// state and is safe for concurrent use.
type Gateway struct {
	verifier CredentialVerifier
}

// NewGateway constructs a gateway over the given verifier.
func NewGateway(verifier CredentialVerifier) *Gateway {
	return &Gateway{verifier: verifier}
}

// Decide returns the decision for path given the raw credential, where an
// empty credential means none was presented. Rows are evaluated in order and
// the first match wins.
func (g *Gateway) Decide(path, credential string) Decision {
	route := Classify(path)

	if credential == "" {
		if route.IsProtected {
			return Decision{Kind: Redirect, Location: loginPath + "?redirect=" + url.QueryEscape(path), Rule: 1}
		}
		return Decision{Kind: Continue, Rule: 2}
	}

	claims, ok := g.verify(credential)
	if !ok {
		if route.IsProtected {
			return Decision{Kind: RedirectAndClear, Location: loginPath, Rule: 3}
		}
		// A stale credential on a public page is tolerated and kept.
		return Decision{Kind: Continue, Rule: 4}
	}

	switch {
	case route.IsGuestOnly:
		return Decision{Kind: Redirect, Location: claims.Role.HomePath(), Rule: 5}
	case claims.Role == domain.RoleAdmin && route.IsStudentOnly:
		return Decision{Kind: Redirect, Location: domain.RoleAdmin.HomePath(), Rule: 6}
	case claims.Role == domain.RoleStudent && route.IsAdminOnly:
		return Decision{Kind: Redirect, Location: domain.RoleStudent.HomePath(), Rule: 7}
	}
	return Decision{Kind: Continue, Rule: 8}
}

// verify contains every codec failure, panics included.
func (g *Gateway) verify(credential string) (claims *Claims, ok bool) {
	if g.verifier == nil {
		return nil, false
	}
	defer func() {
		if r := recover(); r != nil {
			claims, ok = nil, false
		}
	}()
	claims, err := g.verifier.Verify(credential)
	if err != nil || claims == nil {
		return nil, false
	}
	return claims, true
}

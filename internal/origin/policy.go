// Package origin decides whether a request's declared Origin is allowed
// to make cross-origin calls to the API.
package origin

import (
	"fmt"
	"strings"
)

// Decision is the outcome of evaluating an Origin header.
type Decision int

const (
	// DecisionNoOrigin means no Origin header was sent (same-origin or
	// non-browser client): allow, emit no CORS headers.
	DecisionNoOrigin Decision = iota
	// DecisionAllowed means the origin is configured: emit CORS headers.
	DecisionAllowed
	// DecisionDenied means the origin is not configured: reject with 403.
	DecisionDenied
)

// defaultDevOrigins are allowed when no origins are configured and the app
// runs in development or test. Outside those environments an unconfigured
// policy allows nothing.
var defaultDevOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// Policy is an immutable set of normalized allowed origins plus a
// credentials flag. Built once at startup; safe for concurrent reads.
type Policy struct {
	allowed          map[string]struct{}
	allowCredentials bool
}

// NewPolicy builds a policy from configured origins. A literal "*" is
// rejected outright so a production deployment can never end up silently
// permissive. With no configured origins, localhost development origins
// are allowed only when env is "development" or "test".
func NewPolicy(origins []string, allowCredentials bool, env string) (*Policy, error) {
	if len(origins) == 0 && (env == "development" || env == "test") {
		origins = defaultDevOrigins
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			return nil, fmt.Errorf("wildcard origin %q is not allowed; list origins explicitly", o)
		}
		allowed[Normalize(o)] = struct{}{}
	}

	return &Policy{allowed: allowed, allowCredentials: allowCredentials}, nil
}

// Evaluate classifies an Origin header value and returns the normalized
// origin alongside the decision.
func (p *Policy) Evaluate(originHeader string) (Decision, string) {
	if originHeader == "" {
		return DecisionNoOrigin, ""
	}
	norm := Normalize(originHeader)
	if _, ok := p.allowed[norm]; ok {
		return DecisionAllowed, norm
	}
	return DecisionDenied, norm
}

// Allows reports whether the given origin is in the allowed set.
func (p *Policy) Allows(originHeader string) bool {
	d, _ := p.Evaluate(originHeader)
	return d == DecisionAllowed
}

// AllowCredentials reports whether credentialed cross-origin requests are
// permitted.
func (p *Policy) AllowCredentials() bool { return p.allowCredentials }

// Origins returns the normalized allowed origins. Intended for logging and
// the configure CLI.
func (p *Policy) Origins() []string {
	out := make([]string, 0, len(p.allowed))
	for o := range p.allowed {
		out = append(out, o)
	}
	return out
}

// Normalize strips a single trailing slash. Matching is exact string
// equality after normalization: no wildcards, no scheme relaxation, no
// subdomain matching.
func Normalize(o string) string {
	return strings.TrimSuffix(strings.TrimSpace(o), "/")
}

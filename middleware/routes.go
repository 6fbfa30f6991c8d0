package middleware

import "regexp"

// Classification is the handling category a request path falls into. It
// selects which validation flavor applies, or excludes the path from
// validation entirely.
type Classification int

const (
	// ClassDefault validates against the global token namespace.
	ClassDefault Classification = iota
	// ClassExempt skips authentication entirely (registration, login).
	ClassExempt
	// ClassGlobalLogout validates globally, then revokes the token.
	ClassGlobalLogout
	// ClassTenant validates against the named tenant's key.
	ClassTenant
	// ClassTenantLogout validates against the named tenant's key, then
	// revokes the token.
	ClassTenantLogout
)

// Rule pairs a path pattern with its classification. When the pattern
// captures a group, the first capture is the tenant name.
type Rule struct {
	Pattern *regexp.Regexp
	Class   Classification
}

// DefaultRules returns the ordered route table. Earlier rules win; paths
// matching no rule fall back to [ClassDefault].
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: regexp.MustCompile(`^/error$`), Class: ClassExempt},
		{Pattern: regexp.MustCompile(`^/api/auth/login$`), Class: ClassExempt},
		{Pattern: regexp.MustCompile(`^/api/auth/register$`), Class: ClassExempt},
		{Pattern: regexp.MustCompile(`^/api/auth/[^/]+/register/[^/]+/$`), Class: ClassExempt},
		{Pattern: regexp.MustCompile(`^/api/auth/logout$`), Class: ClassGlobalLogout},
		{Pattern: regexp.MustCompile(`^/api/auth/([^/]+)/logout$`), Class: ClassTenantLogout},
		{Pattern: regexp.MustCompile(`^/api/auth/([^/]+)/[^/]+/.*$`), Class: ClassTenant},
		// A bare tenant endpoint ("/api/auth/{tenant}/") is validated against
		// the global namespace; the tenant segment names the target, not the
		// token's signer.
		{Pattern: regexp.MustCompile(`^/api/auth/[^/]+/$`), Class: ClassDefault},
	}
}

// Classify matches path against rules in order and returns the first match's
// classification plus the captured tenant name, if any. An unmatched path is
// [ClassDefault].
func Classify(rules []Rule, path string) (Classification, string) {
	for _, rule := range rules {
		match := rule.Pattern.FindStringSubmatch(path)
		if match == nil {
			continue
		}
		if len(match) > 1 {
			return rule.Class, match[1]
		}
		return rule.Class, ""
	}
	return ClassDefault, ""
}

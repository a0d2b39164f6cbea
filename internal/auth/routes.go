package auth

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Tag is one access-policy category a route can belong to.
type Tag uint8

const (
	TagProtected Tag = 1 << iota
	TagGuestOnly
	TagAdminOnly
	TagStudentOnly
)

type routeRule struct {
	prefix string
	tags   Tag
}

// routePolicy is the fixed policy table. A prefix may carry several tags.
var routePolicy = []routeRule{
	{prefix: "/siswa", tags: TagProtected | TagStudentOnly},
	{prefix: "/admin", tags: TagProtected | TagAdminOnly},
	{prefix: "/login", tags: TagGuestOnly},
	{prefix: "/register", tags: TagGuestOnly},
}

const canonicalPathKey = "gateway_path"

var (
	// excludedPrefix matches the API prefix, health checks and the static
	// asset directories.
	excludedPrefix = regexp.MustCompile(`^/(api|health|static|assets|_next)(/|$)|^/favicon\.ico$`)
	// assetFile matches paths that name a file. They are excluded only outside
	// the protected areas.
	assetFile = regexp.MustCompile(`\.[A-Za-z0-9]+$`)
)

// Classification is the set of policy tags derived from a path.
type Classification struct {
	IsProtected   bool
	IsGuestOnly   bool
	IsAdminOnly   bool
	IsStudentOnly bool
}

// Excluded reports whether path bypasses the gateway entirely. path must
// already be canonical.
func Excluded(path string) bool {
	if excludedPrefix.MatchString(path) {
		return true
	}
	return assetFile.MatchString(path) && !Classify(path).IsProtected
}

// CanonicalPath decodes percent escapes once, then collapses repeated slashes
// and resolves dot segments, so every spelling of a route classifies alike.
// A trailing slash is kept.
func CanonicalPath(raw string) (string, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(decoded, "/") {
		decoded = "/" + decoded
	}
	clean := path.Clean(decoded)
	if strings.HasSuffix(decoded, "/") && clean != "/" {
		clean += "/"
	}
	return clean, nil
}

// RequestPath returns the canonical path of the request, computing it once
// per request. Undecodable paths are a 400.
func RequestPath(c *fiber.Ctx) (string, error) {
	if cached, ok := c.Locals(canonicalPathKey).(string); ok {
		return cached, nil
	}
	canonical, err := CanonicalPath(c.Path())
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "malformed request path")
	}
	c.Locals(canonicalPathKey, canonical)
	return canonical, nil
}

// EscapedPath re-encodes a canonical path for use in an outgoing URL.
func EscapedPath(canonical string) string {
	return (&url.URL{Path: canonical}).EscapedPath()
}

// Classify maps a request path to its policy tags. Matching is by
// case-sensitive prefix.
func Classify(path string) Classification {
	var tags Tag
	for _, rule := range routePolicy {
		if strings.HasPrefix(path, rule.prefix) {
			tags |= rule.tags
		}
	}
	return Classification{
		IsProtected:   tags&TagProtected != 0,
		IsGuestOnly:   tags&TagGuestOnly != 0,
		IsAdminOnly:   tags&TagAdminOnly != 0,
		IsStudentOnly: tags&TagStudentOnly != 0,
	}
}

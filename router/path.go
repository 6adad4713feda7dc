package router

import (
	"regexp"
)

var (
	compactSlashRegexp = regexp.MustCompile(`/{2,}`)
	staticPathRegexp   = regexp.MustCompile(`^[^{}*]+$`)
	wildcardPathRegexp = regexp.MustCompile(`^\*[0-9a-zA-Z_\-]*$`)
	paramPathRegexp    = regexp.MustCompile(`^{([a-zA-Z][a-zA-Z_0-9]*|_[a-zA-Z_0-9]*[a-zA-Z0-9]+[a-zA-Z_0-9]*)}$`)
)

// Normalize compacts slashes and trims the leading and trailing one
func Normalize(p string) string {
	p = compactSlashRegexp.ReplaceAllString(p, "/")
	if len(p) == 0 {
		return p
	}

	if p[0] == '/' {
		p = p[1:]
	}

	if len(p) > 0 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	return p
}

func IsStatic(segment string) bool {
	return staticPathRegexp.MatchString(segment)
}

func IsWildcard(segment string) bool {
	return wildcardPathRegexp.MatchString(segment)
}

// IsParam reports whether segment looks like {name}
func IsParam(segment string) bool {
	return paramPathRegexp.MatchString(segment)
}

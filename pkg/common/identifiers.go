package common

import "strings"

// PackageSeparator separates the segments of an element path
const PackageSeparator = "::"

// RootPath is the element path of the root package
const RootPath = "::"

// IsIdentifierChar reports whether b may appear in a path segment
func IsIdentifierChar(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_' || b == '$'
}

// IsIdentifier reports whether s is a single, non-empty path segment
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsIdentifierChar(s[i]) {
			return false
		}
	}
	return true
}

// IsElementPath reports whether s is "::" or a "::"-separated list of segments
func IsElementPath(s string) bool {
	if s == RootPath {
		return true
	}
	for _, segment := range strings.Split(s, PackageSeparator) {
		if !IsIdentifier(segment) {
			return false
		}
	}
	return true
}

// SplitElementPath splits an element path into its package path and its
// final segment. The package path of a top-level segment is "".
func SplitElementPath(s string) (string, string) {
	i := strings.LastIndex(s, PackageSeparator)
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+len(PackageSeparator):]
}

// JoinElementPath appends name to a package path
func JoinElementPath(pkg, name string) string {
	if pkg == "" || pkg == RootPath {
		return name
	}
	return pkg + PackageSeparator + name
}

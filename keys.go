package syncache

import "strings"

const keySep = ":"

// DeriveKey joins the non-empty components of [namespace, id] with ":".
// Both empty yields "".
func DeriveKey(namespace, id string) string {
	switch {
	case namespace == "":
		return id
	case id == "":
		return namespace
	default:
		return strings.Join([]string{namespace, id}, keySep)
	}
}

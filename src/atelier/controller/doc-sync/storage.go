package docsync

import "strings"

// StripStorage removes the storage definition from the full text of a class.
// The full text is returned unchanged unless storage is a non-empty strict substring of it, in which case exactly one occurrence is removed.
func StripStorage(full, storage string) string {
	if storage == "" || len(storage) >= len(full) {
		return full
	}
	i := strings.Index(full, storage)
	if i < 0 {
		return full
	}
	return full[:i] + full[i+len(storage):]
}

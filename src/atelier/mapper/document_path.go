package mapper

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/uber/atelier-sync/src/atelier/entity"
)

// CategoryDir returns the bucket directory of a document in an export: cls for classes, the extension for routines, csp and oth otherwise.
func CategoryDir(name string) string {
	switch entity.CategoryOf(name) {
	case entity.CategoryClass:
		return "cls"
	case entity.CategoryRoutine:
		return entity.Extension(name)
	case entity.CategoryCSP:
		return "csp"
	default:
		return "oth"
	}
}

// DocumentPath maps a document name to its file under root. Package segments become directories.
func DocumentPath(root, name string, addCategory bool) string {
	rel := filepath.FromSlash(strings.TrimPrefix(DocumentNameToPath(name, false), "/"))
	if addCategory {
		return filepath.Join(root, CategoryDir(name), rel)
	}
	return filepath.Join(root, rel)
}

// PathToDocumentName is the inverse of DocumentPath for files inside root.
func PathToDocumentName(root, file string, addCategory bool) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%q is not inside %q", file, root)
	}

	if addCategory {
		bucket, rest, ok := strings.Cut(rel, "/")
		if !ok {
			return "", fmt.Errorf("%q is not inside a category directory", file)
		}
		if bucket == "csp" {
			return "/" + rest, nil
		}
		rel = rest
	}

	if entity.Extension(rel) == "" {
		return "", fmt.Errorf("%q has no document extension", file)
	}
	name := strings.ReplaceAll(rel, "/", ".")
	if addCategory || isPackagedDocument(name) {
		return name, nil
	}
	// Without category directories, web application files are told apart by their extension.
	return "/" + rel, nil
}

func isPackagedDocument(name string) bool {
	switch entity.CategoryOf(name) {
	case entity.CategoryClass, entity.CategoryRoutine:
		return true
	}
	return isOtherDocument(name)
}

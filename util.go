package kvdoc

import (
	"path/filepath"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

// dedupStrings drops repeated strings, keeping the first occurrence of each.
func dedupStrings(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	result := make([]string, 0, len(ss))
	for _, s := range ss {
		if _, found := seen[s]; found {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	return result
}

// PathToDatabase builds a database file path in dir: "name.db", or
// "name-suffix.db" when suffix is not empty.
func PathToDatabase(dir, name, suffix string) string {
	filename := name + ".db"
	if suffix != "" {
		filename = name + "-" + suffix + ".db"
	}
	return filepath.Join(dir, filename)
}

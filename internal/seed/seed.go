// Package seed holds the bundled default collections used when a store
// has never been written. Each call decodes a fresh copy, so callers may
// mutate the result.
package seed

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/prn-tf/itlibrary/internal/domain"
)

//go:embed data/*.json
var dataFS embed.FS

// Users returns the default accounts.
func Users() []domain.User {
	return mustDecode[domain.User]("data/users.json")
}

// Subjects returns the default subjects.
func Subjects() []domain.Subject {
	return mustDecode[domain.Subject]("data/subjects.json")
}

// Resources returns the default resources.
func Resources() []domain.Resource {
	return mustDecode[domain.Resource]("data/resources.json")
}

func mustDecode[T any](path string) []T {
	data, err := dataFS.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("seed: %s: %v", path, err))
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("seed: %s: %v", path, err))
	}
	return out
}

package db

import (
	"strings"

	"github.com/persistorai/backlog/internal/db/migrations"
)

// SchemaVersion returns the number of embedded SQL migrations, which equals
// the schema version the binary expects. It is reported by the health endpoint.
func SchemaVersion() int {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return 0
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			count++
		}
	}

	return count
}

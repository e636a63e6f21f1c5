package vectorstore

import (
	"fmt"

	"github.com/google/uuid"
)

// pointNamespace scopes the UUIDv5 derivation for point identifiers.
var pointNamespace = uuid.NameSpaceURL

// PointID derives a stable identifier for (source file, chunk index). The
// same file re-ingested with the same chunking parameters produces the same
// IDs, so upserts overwrite instead of duplicating.
func PointID(fileName string, chunkIndex int) string {
	name := fmt.Sprintf("vectora://%s/%d", fileName, chunkIndex)
	return uuid.NewSHA1(pointNamespace, []byte(name)).String()
}

// PointIDs derives the identifiers for a file's first n chunks. Used by the
// compensating delete to sweep everything a failed job may have written.
func PointIDs(fileName string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = PointID(fileName, i)
	}
	return ids
}

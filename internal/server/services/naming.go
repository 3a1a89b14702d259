// Package services contains the coordinator's business logic: transfer
// initiation, progress reconciliation, upload ingestion, download proxying
// and the permission checks guarding them.
package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var originNameReplacer = strings.NewReplacer(
	"%", "_",
	"\\", "_",
	"&", "_",
	" ", "_",
)

// ExtractOriginalName derives a display-safe original name from a raw
// client-supplied path or origin string: the last path segment, with any
// trailing query stripped and the characters % \ & and space replaced by
// underscores. An empty result falls back to the current timestamp.
func ExtractOriginalName(path string) string {
	name := path[strings.LastIndex(path, "/")+1:]

	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}

	name = originNameReplacer.Replace(name)

	if name == "" {
		name = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}

	return name
}

// BuildFileName produces the globally unique internal name for a new file:
// owner, a random segment, then the sanitized origin.
func BuildFileName(userID, origin string) string {
	return fmt.Sprintf("%s-%s-%s", userID, uuid.NewString()[:8], origin)
}

package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewSlotID builds a slot id from a base36 time prefix and a random
// suffix. The prefix keeps ids roughly sortable by creation time; the
// suffix makes collisions within one second a non-issue.
func NewSlotID(now time.Time) string {
	prefix := strconv.FormatInt(now.UTC().Unix(), 36)
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return prefix + "-" + suffix
}

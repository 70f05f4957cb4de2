package order

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const numberPrefix = "ORD"

// NewNumber formats a human-facing order number: ORD-<unix millis in base36>-<4 hex chars>.
// Uniqueness is enforced by storage; callers regenerate on ErrConflict.
func NewNumber(now time.Time, id uuid.UUID) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:4])
	return numberPrefix + "-" + ts + "-" + suffix
}

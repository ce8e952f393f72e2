// ABOUTME: Unit identity markers embedded in rendered documents
// ABOUTME: Let the deterministic merger recover fingerprints from plain text
package render

import (
	"fmt"
	"regexp"
	"time"

	"github.com/docweave/docweave/internal/models"
)

// Marker precedes every unit block in rendered output. HTML comments are
// invisible in both markup targets, survive hand edits around them, and give
// the merger exact identity plus recency without re-deriving either.
func Marker(u *models.SemanticUnit) string {
	return fmt.Sprintf("<!-- unit:%s kind:%s at:%s -->",
		u.Fingerprint, u.Kind, u.ExtractedAt.UTC().Format(time.RFC3339))
}

// MarkerPattern matches a unit marker and captures fingerprint, kind, and
// extraction timestamp.
var MarkerPattern = regexp.MustCompile(`<!-- unit:([0-9a-f]+) kind:(\w+) at:([0-9TZ:+-]+) -->`)

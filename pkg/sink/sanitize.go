package sink

import (
	"strings"

	"go.uber.org/zap"
)

// FallbackName is stored in place of any destination name that cannot be
// normalized into a valid one.
const FallbackName = "Logs"

const (
	minNameLen = 3
	maxNameLen = 63
)

// Sanitizer normalizes raw rendered destination names into names the remote
// store accepts: 3 to 63 characters from [A-Za-z0-9-], starting with a
// letter. It never fails; invalid input degrades to FallbackName.
type Sanitizer struct {
	log *zap.Logger
}

func NewSanitizer(log *zap.Logger) *Sanitizer {
	return &Sanitizer{log: log}
}

// Sanitize cleans a raw destination name. Characters outside the allowed
// set are dropped, then everything before the first letter is stripped. No
// case folding happens here; case-insensitive uniqueness is the store's
// rule, not a transform.
func (s *Sanitizer) Sanitize(raw string) string {
	cleaned := clean(raw)

	if len(cleaned) < minNameLen || len(cleaned) > maxNameLen {
		s.log.Warn("invalid destination name, substituting fallback",
			zap.String("raw", raw),
			zap.String("fallback", FallbackName),
		)
		return FallbackName
	}

	s.log.Debug("sanitized destination name",
		zap.String("raw", raw),
		zap.String("sanitized", cleaned),
	)
	return cleaned
}

func clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	seenLetter := false
	for _, r := range raw {
		switch {
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			seenLetter = true
			b.WriteRune(r)
		case (r >= '0' && r <= '9') || r == '-':
			// Leading digits and hyphens are stripped until a letter shows up.
			if seenLetter {
				b.WriteRune(r)
			}
		}
	}

	return b.String()
}

package editor

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// nowFunc is overridden in tests so the PY<timestamp>.DAT fallback is
// deterministic.
var nowFunc = time.Now

// GenerateSourceName derives a short DOS-like archive key for
// displayName that does not collide (case-insensitively) with any
// name in existingLower.
func GenerateSourceName(displayName string, existingLower map[string]bool) (string, error) {
	name := path.Base(displayName)
	ext := path.Ext(name)
	rawStem := strings.TrimSuffix(name, ext)

	stem := alnumUpper(rawStem)
	if stem == "" {
		stem = "PYFILE"
	}
	if len(stem) > 6 {
		stem = stem[:6]
	}

	extUpper := alnumUpper(strings.TrimPrefix(ext, "."))
	if len(extUpper) > 3 {
		extUpper = extUpper[:3]
	}
	if extUpper == "" {
		extUpper = "BIN"
	}

	for i := 1; i < 1000; i++ {
		candidate := fmt.Sprintf("%s~%d.%s", stem, i, extUpper)
		if !existingLower[strings.ToLower(candidate)] {
			return candidate, nil
		}
	}

	fallback := fmt.Sprintf("PY%d.DAT", nowFunc().Unix())
	if !existingLower[strings.ToLower(fallback)] {
		return fallback, nil
	}
	return "", newErr(NameExhausted, "no unique source name available for "+displayName, nil)
}

func alnumUpper(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

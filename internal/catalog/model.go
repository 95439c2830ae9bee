package catalog

import "strings"

// Ingredient is immutable reference data, deduplicated by
// (name, measurement unit).
type Ingredient struct {
	ID              int64  `json:"id" db:"id"`
	Name            string `json:"name" db:"name"`
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`
}

// Tag is reference data attached to recipes many-to-many.
type Tag struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
	Slug  string `json:"slug" db:"slug"`
}

// DeriveSlug produces a URL-safe slug from a tag name. It is applied
// at construction time when the submitted slug is blank, before the
// uniqueness check. Letters and digits are kept lowercase; every
// other run of characters collapses to a single hyphen.
func DeriveSlug(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

package utils

import "strings"

// Render substitutes {{field}} placeholders in a caption template with
// the supplied values. Unknown placeholders are left as-is so a typo is
// visible in the rendered post rather than silently dropped.
func Render(template string, fields map[string]string) string {
	if len(fields) == 0 {
		return template
	}

	replacements := make([]string, 0, len(fields)*2)
	for field, value := range fields {
		replacements = append(replacements, "{{"+field+"}}", value)
	}

	return strings.NewReplacer(replacements...).Replace(template)
}

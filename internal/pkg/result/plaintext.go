package result

import (
	"regexp"
	"strings"
)

var numberRegexp = regexp.MustCompile(`^[0-9]+$`)

//PlainText drops subtitle indices and timing lines, keeps text lines only
func PlainText(doc string) string {
	var sb strings.Builder
	for _, l := range strings.Split(doc, "\n") {
		l = strings.TrimSpace(l)
		if l == "" || numberRegexp.MatchString(l) || strings.Contains(l, "-->") {
			continue
		}
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	return sb.String()
}

// filename: internal/llm/extract.go
package llm

import (
	"strings"
)

// ExtractRule вырезает правило Suricata из ответа модели.
// Модели оборачивают правило в markdown или добавляют пояснения,
// правилом считается первая строка вида "alert ... (...)". // v1.0
func ExtractRule(content string) string {
	content = strings.ReplaceAll(content, "```suricata", "")
	content = strings.ReplaceAll(content, "```", "")

	// Правило может быть разбито переносами внутри скобок
	var candidate strings.Builder
	inRule := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if !inRule {
			if strings.HasPrefix(trimmed, "alert ") {
				inRule = true
				candidate.WriteString(trimmed)
			}
		} else {
			if trimmed == "" {
				break
			}
			candidate.WriteString(" ")
			candidate.WriteString(trimmed)
		}

		// Правило закончилось на закрывающей скобке опций
		if inRule && strings.HasSuffix(candidate.String(), ")") {
			break
		}
	}

	rule := strings.TrimSpace(candidate.String())
	if !strings.HasPrefix(rule, "alert ") || !strings.HasSuffix(rule, ")") {
		return ""
	}

	return rule
}

// filename: internal/validator/fastlog.go
package validator

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rulesmith/rulesmith/internal/models"
)

// maxAlertDetails ограничивает количество строк алертов в результате
const maxAlertDetails = 10

// sidPattern извлекает триплет [gid:sid:rev] из строки алерта
var sidPattern = regexp.MustCompile(`\[(\d+):(\d+):(\d+)\]`)

// ParsedAlerts представляет разобранный журнал алертов движка
type ParsedAlerts struct {
	Details    []string
	TotalCount int
	SidStats   models.SignatureStats
}

// ParseAlertLog разбирает текстовый журнал fast.log: каждая непустая строка
// считается одним алертом. Некорректные байты кодировки заменяются, разбор
// никогда не завершается ошибкой. // v1.0
func ParseAlertLog(data []byte) ParsedAlerts {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}

	result := ParsedAlerts{
		Details:  []string{},
		SidStats: models.SignatureStats{},
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		// Строки сохраняются дословно, потребители ищут по ним grep-ом
		result.TotalCount++
		if len(result.Details) < maxAlertDetails {
			result.Details = append(result.Details, line)
		}

		if m := sidPattern.FindString(line); m != "" {
			if _, ok := counts[m]; !ok {
				firstSeen[m] = result.TotalCount
			}
			counts[m]++
		}
	}

	for sid, count := range counts {
		result.SidStats = append(result.SidStats, models.SignatureCount{Sid: sid, Count: count})
	}

	// Сортируем по убыванию счетчика, при равенстве — по порядку появления
	sort.SliceStable(result.SidStats, func(i, j int) bool {
		if result.SidStats[i].Count != result.SidStats[j].Count {
			return result.SidStats[i].Count > result.SidStats[j].Count
		}
		return firstSeen[result.SidStats[i].Sid] < firstSeen[result.SidStats[j].Sid]
	})

	return result
}

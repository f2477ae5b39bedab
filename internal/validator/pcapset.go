// filename: internal/validator/pcapset.go
package validator

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrInvalidCapturePath возвращается когда путь к захвату трафика не существует
var ErrInvalidCapturePath = errors.New("capture path does not exist")

// captureExtensions содержит распознаваемые расширения файлов захвата
var captureExtensions = []string{".pcap", ".pcapng"}

// hasCaptureExtension проверяет расширение файла захвата // v1.0
func hasCaptureExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range captureExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ResolveCaptureFiles разрешает путь в упорядоченный список файлов захвата.
// Обычный файл возвращается как есть; для директории применяется фильтр
// расширений и лексикографическая сортировка по имени файла. Все пути
// возвращаются абсолютными, чтобы сборщик команды не работал с
// относительными путями. // v1.0
func ResolveCaptureFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrInvalidCapturePath
		}
		return nil, err
	}

	if !info.IsDir() {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		return []string{abs}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	absDir, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if hasCaptureExtension(entry.Name()) {
			files = append(files, filepath.Join(absDir, entry.Name()))
		}
	}

	// Детерминированный порядок обработки
	sort.Slice(files, func(i, j int) bool {
		return filepath.Base(files[i]) < filepath.Base(files[j])
	})

	return files, nil
}

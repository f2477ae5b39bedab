// filename: internal/validator/strategy.go
package validator

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// ErrEngineUnavailable возвращается стратегией, когда движок недоступен
var ErrEngineUnavailable = errors.New("engine is not available in this environment")

// ExecutionStrategy абстрагирует способ запуска движка для текущего
// окружения: локальный процесс, удаленный хост по SSH или отсутствие
// движка. Все файловые операции валидации идут через стратегию, чтобы
// оркестратор не заботился о том, где живет движок.
type ExecutionStrategy interface {
	// Name возвращает имя стратегии для диагностики
	Name() string
	// LocateBinary ищет исполняемый файл движка, пустая строка — не найден
	LocateBinary(ctx context.Context) string
	// ResolveCaptures разрешает путь в упорядоченный список файлов захвата
	ResolveCaptures(ctx context.Context, path string) ([]string, error)
	// PathExists проверяет существование пути
	PathExists(ctx context.Context, path string) bool
	// EnsureDir создает директорию вместе с родительскими
	EnsureDir(ctx context.Context, path string) error
	// WriteFile записывает содержимое файла с перезаписью
	WriteFile(ctx context.Context, path string, content []byte) error
	// ReadFile читает содержимое файла
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// RemoveFile удаляет файл, отсутствие файла не ошибка
	RemoveFile(ctx context.Context, path string) error
	// JoinPath соединяет элементы пути в семантике файловой системы,
	// на которой работает движок
	JoinPath(elem ...string) string
	// Run выполняет команду движка с жестким таймаутом
	Run(ctx context.Context, cmd Command, timeout time.Duration) (ProcessOutcome, error)
}

// SelectStrategy выбирает стратегию запуска для окружения: локальный
// бинарник, затем удаленный запуск по SSH, иначе движок недоступен.
// Выбор выполняется один раз на вызов валидации. // v1.0
func SelectStrategy(ctx context.Context, cfg EngineConfig) ExecutionStrategy {
	local := &LocalProcess{binary: cfg.Binary}
	if local.LocateBinary(ctx) != "" {
		return local
	}

	if cfg.SSH.Configured() {
		return NewRemoteSSH(cfg.SSH)
	}

	return Unavailable{}
}

// LocalProcess запускает движок как локальный процесс без shell
type LocalProcess struct {
	// binary переопределяет путь к бинарнику, пустой — поиск по PATH
	binary string
}

// NewLocalProcess создает локальную стратегию // v1.0
func NewLocalProcess(binary string) *LocalProcess {
	return &LocalProcess{binary: binary}
}

// Name возвращает имя стратегии // v1.0
func (s *LocalProcess) Name() string { return "local_process" }

// knownInstallLocations содержит известные пути установки движка
var knownInstallLocations = []string{
	"/usr/bin/suricata",
	"/usr/local/bin/suricata",
	"/opt/suricata/bin/suricata",
	`C:\Program Files\Suricata\suricata.exe`,
	`C:\Program Files (x86)\Suricata\suricata.exe`,
}

// LocateBinary ищет бинарник движка в PATH и известных путях установки // v1.0
func (s *LocalProcess) LocateBinary(ctx context.Context) string {
	if s.binary != "" {
		if _, err := os.Stat(s.binary); err == nil {
			return s.binary
		}
		return ""
	}

	names := []string{"suricata"}
	if runtime.GOOS == "windows" {
		names = []string{"suricata.exe", "suricata"}
	}

	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	for _, path := range knownInstallLocations {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}

	return ""
}

// ResolveCaptures разрешает файлы захвата на локальной файловой системе // v1.0
func (s *LocalProcess) ResolveCaptures(ctx context.Context, path string) ([]string, error) {
	return ResolveCaptureFiles(path)
}

// PathExists проверяет существование локального пути // v1.0
func (s *LocalProcess) PathExists(ctx context.Context, path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDir создает локальную директорию // v1.0
func (s *LocalProcess) EnsureDir(ctx context.Context, path string) error {
	return os.MkdirAll(path, 0755)
}

// WriteFile записывает локальный файл // v1.0
func (s *LocalProcess) WriteFile(ctx context.Context, path string, content []byte) error {
	return os.WriteFile(path, content, 0644)
}

// ReadFile читает локальный файл // v1.0
func (s *LocalProcess) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

// RemoveFile удаляет локальный файл // v1.0
func (s *LocalProcess) RemoveFile(ctx context.Context, path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// JoinPath соединяет элементы пути локальной файловой системы // v1.0
func (s *LocalProcess) JoinPath(elem ...string) string {
	return filepath.Join(elem...)
}

// Run запускает движок локальным процессом // v1.0
func (s *LocalProcess) Run(ctx context.Context, cmd Command, timeout time.Duration) (ProcessOutcome, error) {
	return runLocalCommand(ctx, cmd, timeout)
}

// Unavailable представляет окружение без движка: все операции запуска
// завершаются ErrEngineUnavailable, оркестратор деградирует корректно
type Unavailable struct{}

func (Unavailable) Name() string                                { return "unavailable" }
func (Unavailable) LocateBinary(ctx context.Context) string     { return "" }
func (Unavailable) PathExists(ctx context.Context, path string) bool { return false }

func (Unavailable) ResolveCaptures(ctx context.Context, path string) ([]string, error) {
	return ResolveCaptureFiles(path)
}

func (Unavailable) EnsureDir(ctx context.Context, path string) error {
	return ErrEngineUnavailable
}

func (Unavailable) WriteFile(ctx context.Context, path string, content []byte) error {
	return ErrEngineUnavailable
}

func (Unavailable) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return nil, ErrEngineUnavailable
}

func (Unavailable) RemoveFile(ctx context.Context, path string) error { return nil }

func (Unavailable) JoinPath(elem ...string) string { return filepath.Join(elem...) }

func (Unavailable) Run(ctx context.Context, cmd Command, timeout time.Duration) (ProcessOutcome, error) {
	return ProcessOutcome{}, ErrEngineUnavailable
}

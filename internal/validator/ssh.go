// filename: internal/validator/ssh.go
package validator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// RemoteSSH запускает движок на удаленном хосте через SSH. Стратегия
// покрывает окружения без локального движка (например, Windows с
// валидацией на удаленной Linux машине).
type RemoteSSH struct {
	opts SSHOptions
}

// NewRemoteSSH создает SSH стратегию // v1.0
func NewRemoteSSH(opts SSHOptions) *RemoteSSH {
	if opts.Port == 0 {
		opts.Port = 22
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &RemoteSSH{opts: opts}
}

// Name возвращает имя стратегии // v1.0
func (s *RemoteSSH) Name() string { return "remote_ssh" }

// dial устанавливает SSH соединение // v1.0
func (s *RemoteSSH) dial() (*ssh.Client, error) {
	key, err := os.ReadFile(s.opts.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read ssh key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh key: %w", err)
	}

	config := &ssh.ClientConfig{
		User:            s.opts.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         s.opts.Timeout,
	}

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	return ssh.Dial("tcp", addr, config)
}

// shellQuote экранирует аргумент для удаленного shell // v1.0
func shellQuote(arg string) string {
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// remoteCommand собирает командную строку для удаленного запуска // v1.0
func remoteCommand(cmd Command) string {
	parts := make([]string, 0, len(cmd.Args)+1)
	parts = append(parts, shellQuote(cmd.Path))
	for _, arg := range cmd.Args {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

// output выполняет удаленную команду и возвращает stdout // v1.0
func (s *RemoteSSH) output(ctx context.Context, command string, stdin []byte) (string, string, int, error) {
	client, err := s.dial()
	if err != nil {
		return "", "", -1, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", "", -1, err
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != nil {
		session.Stdin = bytes.NewReader(stdin)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		return stdout.String(), stderr.String(), -1, ctx.Err()
	case err := <-done:
		if err != nil {
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				return stdout.String(), stderr.String(), exitErr.ExitStatus(), nil
			}
			return stdout.String(), stderr.String(), -1, err
		}
		return stdout.String(), stderr.String(), 0, nil
	}
}

// LocateBinary ищет бинарник движка на удаленном хосте // v1.0
func (s *RemoteSSH) LocateBinary(ctx context.Context) string {
	stdout, _, code, err := s.output(ctx, "command -v suricata", nil)
	if err != nil || code != 0 {
		return ""
	}
	return strings.TrimSpace(stdout)
}

// ResolveCaptures разрешает файлы захвата на удаленной файловой системе // v1.0
func (s *RemoteSSH) ResolveCaptures(ctx context.Context, path string) ([]string, error) {
	quoted := shellQuote(path)

	if _, _, code, err := s.output(ctx, "test -f "+quoted, nil); err == nil && code == 0 {
		return []string{path}, nil
	}

	if _, _, code, err := s.output(ctx, "test -d "+quoted, nil); err != nil || code != 0 {
		return nil, ErrInvalidCapturePath
	}

	cmd := "find " + quoted + ` -maxdepth 1 -type f \( -name '*.pcap' -o -name '*.pcapng' \)`
	stdout, _, code, err := s.output(ctx, cmd, nil)
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, ErrInvalidCapturePath
	}

	var files []string
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	sort.Strings(files)
	return files, nil
}

// PathExists проверяет существование удаленного пути // v1.0
func (s *RemoteSSH) PathExists(ctx context.Context, path string) bool {
	_, _, code, err := s.output(ctx, "test -e "+shellQuote(path), nil)
	return err == nil && code == 0
}

// EnsureDir создает удаленную директорию // v1.0
func (s *RemoteSSH) EnsureDir(ctx context.Context, path string) error {
	_, stderr, code, err := s.output(ctx, "mkdir -p "+shellQuote(path), nil)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("mkdir failed: %s", strings.TrimSpace(stderr))
	}
	return nil
}

// WriteFile записывает файл на удаленном хосте через stdin сессии.
// Содержимое правила не попадает в командную строку. // v1.0
func (s *RemoteSSH) WriteFile(ctx context.Context, path string, content []byte) error {
	_, stderr, code, err := s.output(ctx, "cat > "+shellQuote(path), content)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("remote write failed: %s", strings.TrimSpace(stderr))
	}
	return nil
}

// ReadFile читает файл с удаленного хоста // v1.0
func (s *RemoteSSH) ReadFile(ctx context.Context, path string) ([]byte, error) {
	stdout, stderr, code, err := s.output(ctx, "cat "+shellQuote(path), nil)
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, fmt.Errorf("remote read failed: %s", strings.TrimSpace(stderr))
	}
	return []byte(stdout), nil
}

// RemoveFile удаляет файл на удаленном хосте // v1.0
func (s *RemoteSSH) RemoveFile(ctx context.Context, path string) error {
	_, _, _, err := s.output(ctx, "rm -f "+shellQuote(path), nil)
	return err
}

// JoinPath соединяет элементы пути в POSIX семантике удаленного хоста // v1.0
func (s *RemoteSSH) JoinPath(elem ...string) string {
	return path.Join(elem...)
}

// Run выполняет команду движка на удаленном хосте с таймаутом // v1.0
func (s *RemoteSSH) Run(ctx context.Context, cmd Command, timeout time.Duration) (ProcessOutcome, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout, stderr, code, err := s.output(runCtx, remoteCommand(cmd), nil)

	outcome := ProcessOutcome{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: code,
	}

	if runCtx.Err() == context.DeadlineExceeded {
		outcome.TimedOut = true
		outcome.ExitCode = -1
		return outcome, nil
	}

	if err != nil {
		return outcome, err
	}

	return outcome, nil
}

// filename: internal/validator/runner.go
package validator

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// ProcessOutcome представляет результат одного запуска процесса движка
type ProcessOutcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// runLocalCommand запускает процесс без shell с жестким таймаутом.
// Код выхода возвращается как есть; интерпретация — задача оркестратора.
// Повторных попыток нет: один файл захвата запускается ровно один раз. // v1.0
func runLocalCommand(ctx context.Context, cmd Command, timeout time.Duration) (ProcessOutcome, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	proc := exec.CommandContext(runCtx, cmd.Path, cmd.Args...)

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr
	proc.Stdin = nil

	err := proc.Run()

	outcome := ProcessOutcome{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		outcome.TimedOut = true
		outcome.ExitCode = -1
		return outcome, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
			return outcome, nil
		}
		// Процесс не удалось запустить: нет бинарника, нет прав и т.п.
		return outcome, err
	}

	outcome.ExitCode = 0
	return outcome, nil
}

// filename: internal/validator/command.go
package validator

// Mode представляет режим запуска движка
type Mode string

const (
	// ModeValidate проигрывает файл захвата против конкретного файла правил
	ModeValidate Mode = "validate"
	// ModeSyntaxCheck проверяет грамматику правила без выполнения детекции
	ModeSyntaxCheck Mode = "syntax_check"
)

// Command представляет структурированную команду запуска движка:
// исполняемый файл и список аргументов, никогда не shell-строка.
type Command struct {
	Path string
	Args []string
}

// BuildCommand собирает команду запуска движка. Содержимое правила никогда
// не попадает в командную строку — только путь к файлу правил, записанному
// оркестратором. // v1.0
func BuildCommand(cfg EngineConfig, binary, ruleFile, captureFile, runLogDir string, mode Mode) Command {
	args := []string{}

	if mode == ModeSyntaxCheck {
		args = append(args, "-T")
	}

	// В режиме конфигурации по умолчанию движок сам находит suricata.yaml
	if !cfg.UseDefaultConfig && cfg.ConfigFile != "" {
		args = append(args, "-c", cfg.ConfigFile)
	}

	// Движок указывает на конкретный файл правил, а не на директорию
	args = append(args, "-S", ruleFile)

	if mode == ModeValidate {
		args = append(args,
			"-k", "none",
			"-r", captureFile,
			"-l", runLogDir,
			// Включен только fast.log, остальные выводы подавлены
			"--set", "outputs.0.fast.enabled=yes",
			"--set", "outputs.1.eve-log.enabled=no",
			"--set", "stats.enabled=no",
		)
	}

	return Command{Path: binary, Args: args}
}

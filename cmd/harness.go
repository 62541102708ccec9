package cmd

import (
	"io"
	"os"
	"strings"

	"stackprobe/internal/config"
	"stackprobe/pkg/logging"
)

// loadConfig loads the layered configuration and initialises logging from it.
func loadConfig() (config.HarnessConfig, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	initLogging(cfg, os.Stderr)
	return cfg, nil
}

func initLogging(cfg config.HarnessConfig, out io.Writer) {
	level := logging.LevelInfo
	if parsed, err := logging.ParseLevel(cfg.Logging.Level); err == nil {
		level = parsed
	}
	if debugMode {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, out)
}

// joinArgs turns command line arguments back into a single argument string
// that splits into the same arguments again.
func joinArgs(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = quoteArg(arg)
	}
	return strings.Join(quoted, " ")
}

func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n'\"\\") {
		return arg
	}
	if !strings.Contains(arg, "'") {
		return "'" + arg + "'"
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(arg)
	return `"` + escaped + `"`
}

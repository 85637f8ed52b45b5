package internal

import (
	"io"
	"os"
)

// Option is a functional option for configuring the application.
type Option func(*Application)

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *Application) {
		a.config = cfg
	}
}

// WithRoot overrides vault.path.
func WithRoot(root string) Option {
	return func(a *Application) {
		a.root = root
	}
}

// WithStdout sets where command output is written.
func WithStdout(w io.Writer) Option {
	return func(a *Application) {
		a.stdout = w
	}
}

// WithStderr sets where logs go when no log file is configured.
func WithStderr(w io.Writer) Option {
	return func(a *Application) {
		a.stderr = w
	}
}

// WithStdin sets the terminal the interactive session reads from.
func WithStdin(f *os.File) Option {
	return func(a *Application) {
		a.stdin = f
	}
}

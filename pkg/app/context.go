package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hushfs/internal/config"
	"github.com/deploymenttheory/go-hushfs/internal/interfaces"
)

// Context holds application-wide configuration and state
type Context struct {
	context.Context

	// Output preferences
	OutputFormat string
	Verbose      bool
	Quiet        bool

	// Out receives command results, ErrOut receives diagnostics.
	Out    io.Writer
	ErrOut io.Writer

	Config   *config.Config
	Logger   logrus.FieldLogger
	Prompter interfaces.PasswordPrompter

	// Common timeouts
	DefaultTimeout time.Duration

	// Progress reporting
	ProgressCallback func(message string, percent int)
}

// NewContext creates a new application context with default configuration
func NewContext() *Context {
	return &Context{
		Context:        context.Background(),
		OutputFormat:   "table",
		Out:            os.Stdout,
		ErrOut:         os.Stderr,
		Logger:         logrus.StandardLogger(),
		DefaultTimeout: 30 * time.Second,
	}
}

// WithTimeout creates a context with timeout
func (c *Context) WithTimeout(timeout time.Duration) (*Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Context, timeout)
	newCtx := *c
	newCtx.Context = ctx
	return &newCtx, cancel
}

// WithCancel creates a cancellable context
func (c *Context) WithCancel() (*Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(c.Context)
	newCtx := *c
	newCtx.Context = ctx
	return &newCtx, cancel
}

// SetProgress sets the progress callback function
func (c *Context) SetProgress(callback func(string, int)) {
	c.ProgressCallback = callback
}

// Progress reports progress if callback is set
func (c *Context) Progress(message string, percent int) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(message, percent)
	}
}

// Log outputs a message based on verbosity settings
func (c *Context) Log(message string) {
	if !c.Quiet && c.Verbose {
		fmt.Fprintln(c.errWriter(), message)
	}
}

// Error outputs an error message unless quiet
func (c *Context) Error(message string) {
	if !c.Quiet {
		fmt.Fprintln(c.errWriter(), "Error:", message)
	}
}

// Settings returns the loaded configuration, or the defaults when none was loaded
func (c *Context) Settings() *config.Config {
	if c.Config == nil {
		return config.Default()
	}
	return c.Config
}

// Output returns the writer command results go to
func (c *Context) Output() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) errWriter() io.Writer {
	if c.ErrOut == nil {
		return os.Stderr
	}
	return c.ErrOut
}

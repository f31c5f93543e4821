package keygen

import (
	"os"

	"github.com/deploymenttheory/go-hushfs/internal/helpers"
	"github.com/deploymenttheory/go-hushfs/pkg/app"
)

// Resolve fills in the configured key path and expands ~
func (r *Request) Resolve(ctx *app.Context) error {
	path := r.KeyPath
	if path == "" {
		path = ctx.Settings().KeyPath
	}
	if path == "" {
		return app.NewError(app.ErrCodeInvalidInput, "key path is required", nil)
	}

	expanded, err := helpers.ExpandHome(path)
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "cannot resolve key path", err)
	}
	r.KeyPath = expanded
	return nil
}

// Validate validates a key request
func (r *Request) Validate() error {
	if r.KeyPath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "key path is required", nil)
	}
	if info, err := os.Stat(r.KeyPath); err == nil && info.IsDir() {
		return app.NewError(app.ErrCodeInvalidInput, "key path is a directory", nil)
	}
	return nil
}

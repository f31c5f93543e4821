package create

import (
	"os"

	"github.com/deploymenttheory/go-hushfs/internal/helpers"
	"github.com/deploymenttheory/go-hushfs/internal/layout"
	"github.com/deploymenttheory/go-hushfs/pkg/app"
)

// Validate validates a create request and parses its size
func (r *Request) Validate() error {
	if r.ImagePath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "image path is required", nil)
	}
	if helpers.FileExists(r.ImagePath) {
		return app.NewError(app.ErrCodeExists, "image already exists: "+r.ImagePath, os.ErrExist)
	}

	if r.Size == "" {
		return app.NewError(app.ErrCodeInvalidInput, "volume size is required", nil)
	}
	size, err := layout.ParseSize(r.Size)
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid volume size", err)
	}
	r.sizeBytes = size

	if r.KeyPath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "key path is required", nil)
	}
	return nil
}

// SizeBytes returns the parsed size; zero before Validate succeeds
func (r *Request) SizeBytes() uint64 {
	return r.sizeBytes
}

func (r *Request) resolve(ctx *app.Context) error {
	if r.KeyPath == "" {
		r.KeyPath = ctx.Settings().KeyPath
	}
	if r.KeyPath == "" {
		return nil
	}
	expanded, err := helpers.ExpandHome(r.KeyPath)
	if err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "cannot resolve key path", err)
	}
	r.KeyPath = expanded
	return nil
}

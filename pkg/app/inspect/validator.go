package inspect

import (
	"os"

	"github.com/deploymenttheory/go-hushfs/pkg/app"
)

// Validate validates an inspection request
func (r *Request) Validate() error {
	if r.ImagePath == "" {
		return app.NewError(app.ErrCodeInvalidInput, "image path is required", nil)
	}
	info, err := os.Stat(r.ImagePath)
	if err != nil {
		return app.FromError("cannot access image", err)
	}
	if !info.Mode().IsRegular() {
		return app.NewError(app.ErrCodeInvalidInput, "image is not a regular file: "+r.ImagePath, nil)
	}
	return nil
}

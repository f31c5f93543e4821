package inspect

import (
	"fmt"

	"github.com/deploymenttheory/go-hushfs/internal/services"
	"github.com/deploymenttheory/go-hushfs/internal/volume"
	"github.com/deploymenttheory/go-hushfs/pkg/app"
)

// Handle reads the superblock and bitmaps of an image
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Log(fmt.Sprintf("Inspecting volume: %s", req.ImagePath))

	var svc services.VolumeManager = services.NewVolumeService(ctx.Logger)
	result, err := svc.Inspect(req.ImagePath)
	if err != nil {
		if volume.IsInUse(err) {
			return nil, app.NewError(app.ErrCodeVolumeInUse, "volume is open in another session", err)
		}
		return nil, app.FromError("volume inspection failed", err)
	}

	return &Response{
		ImagePath:  result.Image,
		Superblock: app.NewSuperblockView(result.Superblock),
		Regions:    app.NewRegionViews(result.Superblock),
		Stats:      result.Stats,
	}, nil
}

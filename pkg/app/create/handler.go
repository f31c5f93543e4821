package create

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/deploymenttheory/go-hushfs/internal/layout"
	"github.com/deploymenttheory/go-hushfs/internal/services"
	"github.com/deploymenttheory/go-hushfs/pkg/app"
)

// Handle creates and formats a new volume image
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	if err := req.resolve(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	opts := layout.DefaultFormatOptions()
	opts.RootInode = ctx.Settings().Format.RootInode && !req.NoRootInode

	ctx.Log(fmt.Sprintf("Creating %s volume: %s", humanize.IBytes(req.SizeBytes()), req.ImagePath))
	ctx.Progress("Formatting volume...", 20)

	result, err := newService(ctx).Create(services.CreateRequest{
		Image:   req.ImagePath,
		Size:    req.SizeBytes(),
		KeyPath: req.KeyPath,
		Format:  opts,
	})
	if err != nil {
		return nil, app.FromError("volume creation failed", err)
	}

	ctx.Progress("Complete", 100)
	return &Response{
		RunID:       result.RunID,
		ImagePath:   result.Image,
		Fingerprint: result.Fingerprint,
		Superblock:  app.NewSuperblockView(result.Superblock),
		Regions:     app.NewRegionViews(result.Superblock),
		RootInode:   opts.RootInode,
		Duration:    result.Duration,
	}, nil
}

func newService(ctx *app.Context) services.VolumeManager {
	return services.NewVolumeService(ctx.Logger)
}

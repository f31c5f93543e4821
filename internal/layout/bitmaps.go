package layout

import (
	"github.com/deploymenttheory/go-hushfs/internal/bitmap"
	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// NewInodeBitmap returns the format-time inode bitmap. No inode is allocated yet.
func NewInodeBitmap(sb *types.Superblock) *bitmap.Bitmap {
	return bitmap.New(sb.InodeBitmapBlocks, sb.BlockSize)
}

// NewBlockBitmap returns the format-time block bitmap with every metadata
// block, [0, first_datablock), marked allocated.
func NewBlockBitmap(sb *types.Superblock) (*bitmap.Bitmap, error) {
	bm := bitmap.New(sb.BlockBitmapBlocks, sb.BlockSize)
	if err := bm.SetRange(0, sb.FirstDatablock); err != nil {
		return nil, types.NewGeometryError("initialize block bitmap", err.Error())
	}
	return bm, nil
}

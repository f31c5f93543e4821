package app

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// SuperblockView is the printable form of a volume superblock
type SuperblockView struct {
	Magic             string `json:"magic" yaml:"magic"`
	Version           uint32 `json:"version" yaml:"version"`
	BlockSize         uint32 `json:"block_size" yaml:"block_size"`
	DiskSize          uint64 `json:"disk_size" yaml:"disk_size"`
	DiskSizeHuman     string `json:"disk_size_human" yaml:"disk_size_human"`
	TotalInodes       uint64 `json:"total_inodes" yaml:"total_inodes"`
	TotalBlocks       uint64 `json:"total_blocks" yaml:"total_blocks"`
	InodesPerBlock    uint64 `json:"inodes_per_block" yaml:"inodes_per_block"`
	InodeBitmapBlocks uint64 `json:"inode_bitmap_blocks" yaml:"inode_bitmap_blocks"`
	BlockBitmapBlocks uint64 `json:"block_bitmap_blocks" yaml:"block_bitmap_blocks"`
	InodeTableBlocks  uint64 `json:"inode_table_blocks" yaml:"inode_table_blocks"`
	InodeBitmapOffset uint64 `json:"inode_bitmap_offset" yaml:"inode_bitmap_offset"`
	BlockBitmapOffset uint64 `json:"block_bitmap_offset" yaml:"block_bitmap_offset"`
	InodeTableOffset  uint64 `json:"inode_table_offset" yaml:"inode_table_offset"`
	FirstDatablock    uint64 `json:"first_datablock" yaml:"first_datablock"`
}

// RegionView is the printable form of an on-disk region
type RegionView struct {
	Name   string `json:"name" yaml:"name"`
	Start  uint64 `json:"start" yaml:"start"`
	Blocks uint64 `json:"blocks" yaml:"blocks"`
	Size   string `json:"size" yaml:"size"`
}

// NewSuperblockView converts a superblock for display
func NewSuperblockView(sb types.Superblock) SuperblockView {
	return SuperblockView{
		Magic:             sb.MagicString(),
		Version:           sb.Version,
		BlockSize:         sb.BlockSize,
		DiskSize:          sb.DiskSize,
		DiskSizeHuman:     humanize.IBytes(sb.DiskSize),
		TotalInodes:       sb.TotalInodes,
		TotalBlocks:       sb.TotalBlocks,
		InodesPerBlock:    sb.InodesPerBlock,
		InodeBitmapBlocks: sb.InodeBitmapBlocks,
		BlockBitmapBlocks: sb.BlockBitmapBlocks,
		InodeTableBlocks:  sb.InodeTableBlocks,
		InodeBitmapOffset: sb.InodeBitmapOffset,
		BlockBitmapOffset: sb.BlockBitmapOffset,
		InodeTableOffset:  sb.InodeTableOffset,
		FirstDatablock:    sb.FirstDatablock,
	}
}

// NewRegionViews converts the regions of a superblock for display
func NewRegionViews(sb types.Superblock) []RegionView {
	regions := sb.Regions()
	views := make([]RegionView, 0, len(regions))
	for _, r := range regions {
		views = append(views, RegionView{
			Name:   r.Name,
			Start:  r.Start,
			Blocks: r.Blocks,
			Size:   humanize.IBytes(r.Blocks * uint64(sb.BlockSize)),
		})
	}
	return views
}

// WriteRegionTable prints the region layout as a table
func WriteRegionTable(w io.Writer, regions []RegionView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "REGION\tSTART\tBLOCKS\tSIZE\n")
	fmt.Fprintf(tw, "------\t-----\t------\t----\n")
	for _, r := range regions {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", r.Name, r.Start, r.Blocks, r.Size)
	}
	return tw.Flush()
}

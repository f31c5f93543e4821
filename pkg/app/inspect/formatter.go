package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-hushfs/pkg/app"
)

// FormatOutput formats volume details according to output format
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(response)
	case "table":
		return formatTable(w, response)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatTable(w io.Writer, response *Response) error {
	sb := response.Superblock

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Image:\t%s\n", response.ImagePath)
	fmt.Fprintf(tw, "Magic:\t%s (version %d)\n", sb.Magic, sb.Version)
	fmt.Fprintf(tw, "Size:\t%s (%d bytes)\n", sb.DiskSizeHuman, sb.DiskSize)
	fmt.Fprintf(tw, "Block size:\t%d\n", sb.BlockSize)
	fmt.Fprintf(tw, "Inodes per block:\t%d\n", sb.InodesPerBlock)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if err := app.WriteRegionTable(w, response.Regions); err != nil {
		return err
	}

	s := response.Stats
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\tTOTAL\tUSED\tFREE\n")
	fmt.Fprintf(tw, "Inodes\t%d\t%d\t%d\n", s.TotalInodes, s.UsedInodes, s.FreeInodes)
	fmt.Fprintf(tw, "Blocks\t%d\t%d\t%d\n", s.TotalBlocks, s.UsedBlocks, s.FreeBlocks)
	if err := tw.Flush(); err != nil {
		return err
	}

	if s.NextFreeInode != 0 {
		fmt.Fprintf(w, "\nNext free inode: %d\n", s.NextFreeInode)
	}
	return nil
}

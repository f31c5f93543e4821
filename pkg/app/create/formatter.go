package create

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-hushfs/pkg/app"
)

// FormatOutput formats a created volume according to output format
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

	fmt.Fprintf(w, "Created %s (%s, %d blocks of %d bytes)\n",
		response.ImagePath, sb.DiskSizeHuman, sb.TotalBlocks, sb.BlockSize)
	fmt.Fprintf(w, "Key fingerprint: %s\n\n", response.Fingerprint)

	if err := app.WriteRegionTable(w, response.Regions); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d inodes, first data block %d", sb.TotalInodes, sb.FirstDatablock)
	if response.RootInode {
		fmt.Fprintf(w, ", root inode written")
	}
	fmt.Fprintf(w, "\n")
	return nil
}

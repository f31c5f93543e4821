package keygen

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// FormatOutput formats a generated key pair according to output format
func FormatOutput(w io.Writer, response *Response, format string) error {
	switch format {
	case "json":
		return formatJSON(w, response)
	case "yaml":
		return formatYAML(w, response)
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "PRIVATE KEY\t%s\n", response.Files.Private)
		fmt.Fprintf(tw, "PUBLIC KEY\t%s\n", response.Files.Public)
		fmt.Fprintf(tw, "SALT\t%s\n", response.Files.Salt)
		fmt.Fprintf(tw, "FINGERPRINT\t%s\n", response.Fingerprint)
		fmt.Fprintf(tw, "PASSWORD SCORE\t%d/4\n", response.PasswordScore)
		if err := tw.Flush(); err != nil {
			return err
		}
		if response.WeakPassword {
			fmt.Fprintln(w, "\nWarning: the password is weak, consider generating a new key.")
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatVerifyOutput formats the outcome of a key check
func FormatVerifyOutput(w io.Writer, response *VerifyResponse, format string) error {
	switch format {
	case "json":
		return formatJSON(w, response)
	case "yaml":
		return formatYAML(w, response)
	case "table":
		status := "OK"
		if !response.Matches {
			status = "MISMATCH"
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "PRIVATE KEY\t%s\n", response.Files.Private)
		fmt.Fprintf(tw, "PUBLIC KEY\t%s\n", response.Files.Public)
		fmt.Fprintf(tw, "FINGERPRINT\t%s\n", response.Fingerprint)
		fmt.Fprintf(tw, "STATUS\t%s\n", status)
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(v)
}

package keygen

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/deploymenttheory/go-hushfs/internal/services"
)

func testResponse() *Response {
	return &Response{
		Files:         services.KeyFilesFor("/keys/vol.key"),
		Fingerprint:   "0011223344556677",
		PasswordScore: 1,
		WeakPassword:  true,
	}
}

func TestFormatOutput(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		wantErr  bool
		validate func(*testing.T, []byte)
	}{
		{
			name:   "table format",
			format: "table",
			validate: func(t *testing.T, output []byte) {
				assert.Contains(t, string(output), "PUBLIC KEY      /keys/vol.key.pub")
				assert.Contains(t, string(output), "PASSWORD SCORE  1/4")
				assert.Contains(t, string(output), "password is weak")
			},
		},
		{
			name:   "json format",
			format: "json",
			validate: func(t *testing.T, output []byte) {
				var decoded Response
				require.NoError(t, json.Unmarshal(output, &decoded))
				assert.Equal(t, *testResponse(), decoded)
			},
		},
		{
			name:   "yaml format",
			format: "yaml",
			validate: func(t *testing.T, output []byte) {
				var decoded map[string]any
				require.NoError(t, yaml.Unmarshal(output, &decoded))
				assert.Equal(t, "0011223344556677", decoded["fingerprint"])
			},
		},
		{
			name:    "unknown format",
			format:  "xml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := FormatOutput(&buf, testResponse(), tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, buf.Bytes())
		})
	}
}

func TestFormatVerifyOutput(t *testing.T) {
	var buf bytes.Buffer
	resp := &VerifyResponse{Files: services.KeyFilesFor("/keys/vol.key"), Fingerprint: "aa", Matches: false}
	require.NoError(t, FormatVerifyOutput(&buf, resp, "table"))
	assert.Contains(t, buf.String(), "STATUS       MISMATCH")
}

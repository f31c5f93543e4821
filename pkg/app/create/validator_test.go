package create

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hushfs/pkg/app"
)

func TestRequest_Validate(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.img")
	require.NoError(t, os.WriteFile(existing, nil, 0o600))

	tests := []struct {
		name    string
		request Request
		errCode string
		size    uint64
	}{
		{
			name:    "valid",
			request: Request{ImagePath: filepath.Join(dir, "new.img"), Size: "20m", KeyPath: "/k"},
			size:    20000000,
		},
		{
			name:    "binary suffix",
			request: Request{ImagePath: filepath.Join(dir, "new.img"), Size: "1MiB", KeyPath: "/k"},
			size:    1 << 20,
		},
		{
			name:    "missing image",
			request: Request{Size: "20m", KeyPath: "/k"},
			errCode: app.ErrCodeInvalidInput,
		},
		{
			name:    "existing image",
			request: Request{ImagePath: existing, Size: "20m", KeyPath: "/k"},
			errCode: app.ErrCodeExists,
		},
		{
			name:    "missing size",
			request: Request{ImagePath: filepath.Join(dir, "new.img"), KeyPath: "/k"},
			errCode: app.ErrCodeInvalidInput,
		},
		{
			name:    "zero size",
			request: Request{ImagePath: filepath.Join(dir, "new.img"), Size: "0", KeyPath: "/k"},
			errCode: app.ErrCodeInvalidInput,
		},
		{
			name:    "missing key",
			request: Request{ImagePath: filepath.Join(dir, "new.img"), Size: "20m"},
			errCode: app.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.request
			err := req.Validate()
			if tt.errCode != "" {
				var common *app.CommonError
				require.ErrorAs(t, err, &common)
				assert.Equal(t, tt.errCode, common.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, req.SizeBytes())
		})
	}
}

package create

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hushfs/internal/config"
	"github.com/deploymenttheory/go-hushfs/internal/crypto"
	"github.com/deploymenttheory/go-hushfs/internal/password"
	"github.com/deploymenttheory/go-hushfs/internal/services"
	"github.com/deploymenttheory/go-hushfs/internal/volume"
	"github.com/deploymenttheory/go-hushfs/pkg/app"
)

func testKey(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "vol.key")
	prompter := password.NewPrompter(strings.NewReader("pw\npw\n"), io.Discard, false)
	params := crypto.KDFParams{Iterations: 1, MemoryKiB: 64, Parallelism: 1}
	logger, _ := test.NewNullLogger()
	_, err := services.NewKeygenService(prompter, params, 0, logger).Generate(path)
	require.NoError(t, err)
	return path
}

func testContext(t *testing.T, keyPath string) *app.Context {
	t.Helper()
	cfg := config.Default()
	cfg.KeyPath = keyPath

	logger, _ := test.NewNullLogger()
	ctx := app.NewContext()
	ctx.Config = cfg
	ctx.Logger = logger
	ctx.Out = io.Discard
	ctx.ErrOut = io.Discard
	return ctx
}

func TestHandle(t *testing.T) {
	dir := t.TempDir()
	key := testKey(t, dir)

	tests := []struct {
		name       string
		request    Request
		configured string
		errCode    string
		validate   func(*testing.T, *Response)
	}{
		{
			name:    "one mebibyte",
			request: Request{Size: "1048576", KeyPath: key},
			validate: func(t *testing.T, resp *Response) {
				assert.Equal(t, uint64(256), resp.Superblock.TotalBlocks)
				assert.Equal(t, uint64(20), resp.Superblock.FirstDatablock)
				assert.True(t, resp.RootInode)
				assert.Len(t, resp.Regions, 5)
				assert.NotEmpty(t, resp.RunID)
			},
		},
		{
			name:       "configured key and suffix size",
			request:    Request{Size: "2m"},
			configured: key,
			validate: func(t *testing.T, resp *Response) {
				assert.Equal(t, uint64(2000000), resp.Superblock.DiskSize)
				assert.Equal(t, uint64(488), resp.Superblock.TotalBlocks)
			},
		},
		{
			name:    "without root inode",
			request: Request{Size: "1m", KeyPath: key, NoRootInode: true},
			validate: func(t *testing.T, resp *Response) {
				assert.False(t, resp.RootInode)
			},
		},
		{
			name:    "too small",
			request: Request{Size: "16k", KeyPath: key},
			errCode: app.ErrCodeGeometry,
		},
		{
			name:    "missing public key",
			request: Request{Size: "1m", KeyPath: filepath.Join(dir, "absent.key")},
			errCode: app.ErrCodeNotFound,
		},
		{
			name:    "bad size",
			request: Request{Size: "lots", KeyPath: key},
			errCode: app.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.request
			req.ImagePath = filepath.Join(t.TempDir(), "vol.img")

			resp, err := Handle(testContext(t, tt.configured), &req)
			if tt.errCode != "" {
				var common *app.CommonError
				require.ErrorAs(t, err, &common)
				assert.Equal(t, tt.errCode, common.Code)
				_, statErr := os.Stat(req.ImagePath)
				assert.True(t, os.IsNotExist(statErr))
				return
			}

			require.NoError(t, err)
			tt.validate(t, resp)

			v, err := volume.Open(req.ImagePath, nil)
			require.NoError(t, err)
			defer v.Close()
			assert.Equal(t, resp.Superblock, app.NewSuperblockView(v.Superblock()))
		})
	}
}

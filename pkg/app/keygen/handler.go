package keygen

import (
	"fmt"
	"time"

	"github.com/deploymenttheory/go-hushfs/internal/password"
	"github.com/deploymenttheory/go-hushfs/internal/services"
	"github.com/deploymenttheory/go-hushfs/pkg/app"
)

// Handle generates a password protected key pair
func Handle(ctx *app.Context, req *Request) (*Response, error) {
	startTime := time.Now()

	if err := req.Resolve(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Log(fmt.Sprintf("Generating key pair at: %s", req.KeyPath))
	ctx.Progress("Reading password...", 10)

	result, err := newService(ctx, req.Force).Generate(req.KeyPath)
	if err != nil {
		return nil, app.FromError("key generation failed", err)
	}

	ctx.Progress("Complete", 100)
	return &Response{
		Files:         result.Files,
		Fingerprint:   result.Fingerprint,
		PasswordScore: result.PasswordScore,
		WeakPassword:  result.WeakPassword,
		Duration:      time.Since(startTime),
	}, nil
}

// HandleVerify checks that a password opens the private key and that the
// private key belongs to its public key
func HandleVerify(ctx *app.Context, req *Request) (*VerifyResponse, error) {
	if err := req.Resolve(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := newService(ctx, req.Force).Verify(req.KeyPath)
	if err != nil {
		if services.IsWrongPassword(err) {
			return nil, app.NewError(app.ErrCodeAuthentication, "wrong password or corrupted private key", err)
		}
		return nil, app.FromError("key verification failed", err)
	}

	return &VerifyResponse{
		Files:       result.Files,
		Fingerprint: result.Fingerprint,
		Matches:     result.Matches,
	}, nil
}

func newService(ctx *app.Context, force bool) services.KeyManager {
	cfg := ctx.Settings()

	prompter := ctx.Prompter
	if prompter == nil {
		prompter = password.NewTerminalPrompter(cfg.Password.Mask)
	}
	minScore := cfg.Password.MinScore
	if force {
		minScore = 0
	}
	return services.NewKeygenService(prompter, cfg.KDFParams(), minScore, ctx.Logger)
}

package services

// KeyManager generates and checks password protected key pairs
type KeyManager interface {
	Generate(privatePath string) (*KeygenResult, error)
	Verify(privatePath string) (*VerifyResult, error)
}

// VolumeManager creates and inspects volume images
type VolumeManager interface {
	Create(req CreateRequest) (*CreateResult, error)
	Inspect(image string) (*InspectResult, error)
}

var (
	_ KeyManager    = (*KeygenService)(nil)
	_ VolumeManager = (*VolumeService)(nil)
)

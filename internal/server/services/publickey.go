package services

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"

	"filerelay/internal/common"
)

// PublicKey returns the SSH public key clients must authorize before
// requesting an SCP transfer. The key file is validated on every read so a
// corrupted deployment fails loudly instead of serving garbage.
func (s *FileService) PublicKey() (string, error) {
	if s.cfg.PublicKeyPath == "" {
		return "", fmt.Errorf("%w: no public key configured", common.ErrNotFound)
	}
	raw, err := os.ReadFile(s.cfg.PublicKeyPath)
	if err != nil {
		return "", fmt.Errorf("reading public key: %w", err)
	}
	if _, _, _, _, err := ssh.ParseAuthorizedKey(raw); err != nil {
		return "", fmt.Errorf("%w: invalid public key at %s: %v", common.ErrInternal, s.cfg.PublicKeyPath, err)
	}
	return strings.TrimSpace(string(raw)), nil
}

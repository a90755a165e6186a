// Package auth provides the authentication providers.
//
// Two variants exist: Mock accepts every login and returns a fixed identity,
// Token derives stable identities and issues signed bearer tokens. The variant
// is chosen once at startup by New.
package auth

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// Provider variant names.
const (
	ProviderMock  = "mock"
	ProviderToken = "token"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	Token    TokenConfig
}

// New builds the configured provider.
func New(logger *slog.Logger, cfg Config) (ports.AuthProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderMock:
		return NewMock(logger), nil
	case ProviderToken:
		return NewToken(logger, cfg.Token)
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Provider)
	}
}

var walletAddress = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidWalletAddress reports whether addr looks like an EVM account address.
func ValidWalletAddress(addr string) bool {
	return walletAddress.MatchString(addr)
}

func normalizeWallet(w domain.Wallet) domain.Wallet {
	w.Address = strings.TrimSpace(w.Address)
	if w.ChainID == "" {
		w.ChainID = "1"
	}
	if w.Connector == "" {
		w.Connector = "metamask"
	}
	return w
}

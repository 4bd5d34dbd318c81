package archive

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/settlement-archiver/pkg/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// NewTokenSource returns a caching client-credentials token source for the
// archive API.
func NewTokenSource(ctx context.Context, cfg config.TokenConfig) (oauth2.TokenSource, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("token url is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("token client credentials are required")
	}

	ccfg := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.URL,
	}
	if scope := strings.TrimSpace(cfg.Scope); scope != "" {
		ccfg.Scopes = strings.Fields(scope)
	}
	return ccfg.TokenSource(ctx), nil
}

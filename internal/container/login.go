package container

import (
	"context"
	"fmt"
	"strings"

	dockercfg "github.com/docker/cli/cli/config"
	credhelperclient "github.com/docker/docker-credential-helpers/client"
)

// CheckLogin reports whether the local docker credential store already
// holds usable credentials for registryHost, without making a network
// call. It reads ~/.docker/config.json, then asks the configured
// credential helper (if any) for that host's entry.
func (d *dockerClient) CheckLogin(ctx context.Context, registryHost string) (bool, error) {
	cfg, err := dockercfg.Load(dockercfg.Dir())
	if err != nil {
		return false, fmt.Errorf("container: loading docker config: %w", err)
	}

	if ac, ok := cfg.AuthConfigs[registryHost]; ok {
		if ac.Auth != "" || ac.IdentityToken != "" || (ac.Username != "" && ac.Password != "") {
			return true, nil
		}
	}

	helper := cfg.CredentialHelpers[registryHost]
	if helper == "" {
		helper = cfg.CredentialsStore
	}
	if helper == "" {
		return false, nil
	}

	program := credhelperclient.NewShellProgramFunc("docker-credential-" + helper)
	creds, err := credhelperclient.Get(program, registryHost)
	if err != nil {
		if isCredentialsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("container: querying credential helper %s for %s: %w", helper, registryHost, err)
	}
	return creds.Username != "" || creds.Secret != "", nil
}

func isCredentialsNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "credentials not found")
}

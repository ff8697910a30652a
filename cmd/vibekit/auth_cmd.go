package main

import (
	"fmt"
	"os"

	"github.com/toolprint/vibekit/internal/oauth"
)

// AuthCmd groups the OAuth token lifecycle subcommands, matching spec
// §6's `auth login|logout|status|verify|export|import <provider>`
// surface. Generalizes the teacher's host-keypair/device-auth flow
// (there is no single analogue in cmd/sand) onto internal/oauth's PKCE
// state machine.
type AuthCmd struct {
	Login  AuthLoginCmd  `cmd:"" help:"authenticate against a provider"`
	Logout AuthLogoutCmd `cmd:"" help:"clear a provider's stored token"`
	Status AuthStatusCmd `cmd:"" help:"report whether a provider has a usable token"`
	Verify AuthVerifyCmd `cmd:"" help:"verify a provider's token is currently valid"`
	Export AuthExportCmd `cmd:"" help:"print a provider's token in the requested format"`
	Import AuthImportCmd `cmd:"" help:"seed a provider's token from an external source"`
}

type AuthLoginCmd struct {
	Provider string `arg:"" help:"provider name, e.g. hub, forge, cloud"`
	Code     string `help:"code#state pair collected after visiting the authorization URL; omit to just print the URL"`
}

func (c *AuthLoginCmd) Run(cctx *Context) error {
	ctx := contextWithCorrelation(cctx)
	mgr, err := cctx.tokenManager(c.Provider)
	if err != nil {
		return err
	}

	if c.Code == "" {
		url, err := mgr.Authenticate()
		if err != nil {
			return fmt.Errorf("vibekit: starting login for %s: %w", c.Provider, err)
		}
		fmt.Println(url)
		fmt.Fprintln(os.Stderr, "visit the URL above, then re-run with --code <code#state>")
		return nil
	}

	if _, err := mgr.Authenticate(); err != nil {
		return fmt.Errorf("vibekit: starting login for %s: %w", c.Provider, err)
	}
	if _, err := mgr.ExchangeCode(ctx, c.Code); err != nil {
		return fmt.Errorf("vibekit: completing login for %s: %w", c.Provider, err)
	}
	fmt.Printf("logged in to %s\n", c.Provider)
	return nil
}

type AuthLogoutCmd struct {
	Provider string `arg:"" help:"provider name"`
}

func (c *AuthLogoutCmd) Run(cctx *Context) error {
	mgr, err := cctx.tokenManager(c.Provider)
	if err != nil {
		return err
	}
	if err := mgr.Logout(); err != nil {
		return fmt.Errorf("vibekit: logging out of %s: %w", c.Provider, err)
	}
	fmt.Printf("logged out of %s\n", c.Provider)
	return nil
}

type AuthStatusCmd struct {
	Provider string `arg:"" optional:"" help:"provider name; omit to check every known provider"`
}

func (c *AuthStatusCmd) Run(cctx *Context) error {
	ctx := contextWithCorrelation(cctx)
	providers := []string{c.Provider}
	if c.Provider == "" {
		providers = []string{"hub", "forge", "cloud"}
	}
	for _, p := range providers {
		status := "not authenticated"
		mgr, err := cctx.tokenManager(p)
		if err == nil {
			if _, tokErr := mgr.GetValidToken(ctx); tokErr == nil {
				status = "authenticated"
			}
		}
		fmt.Printf("%s: %s\n", p, status)
	}
	return nil
}

type AuthVerifyCmd struct {
	Provider string `arg:"" help:"provider name"`
}

func (c *AuthVerifyCmd) Run(cctx *Context) error {
	ctx := contextWithCorrelation(cctx)
	mgr, err := cctx.tokenManager(c.Provider)
	if err != nil {
		return err
	}
	if _, err := mgr.GetValidToken(ctx); err != nil {
		return fmt.Errorf("vibekit: %s token is not valid: %w", c.Provider, err)
	}
	fmt.Printf("%s token is valid\n", c.Provider)
	return nil
}

type AuthExportCmd struct {
	Provider string `arg:"" help:"provider name"`
	Format   string `default:"env" placeholder:"<env|json|full|refresh>" help:"export format"`
}

func (c *AuthExportCmd) Run(cctx *Context) error {
	mgr, err := cctx.tokenManager(c.Provider)
	if err != nil {
		return err
	}
	out, err := mgr.Export(oauth.ExportFormat(c.Format))
	if err != nil {
		return fmt.Errorf("vibekit: exporting %s token: %w", c.Provider, err)
	}
	fmt.Println(out)
	return nil
}

type AuthImportCmd struct {
	Provider string `arg:"" help:"provider name"`
	Token    string `help:"import a bare access token"`
	Refresh  string `help:"import a refresh token, exchanging it immediately for an access token"`
	Env      string `help:"import from the named environment variable"`
	File     string `placeholder:"<path>" help:"import from a JSON token file"`
}

func (c *AuthImportCmd) Run(cctx *Context) error {
	ctx := contextWithCorrelation(cctx)
	mgr, err := cctx.tokenManager(c.Provider)
	if err != nil {
		return err
	}

	format, value, err := c.importArg()
	if err != nil {
		return err
	}
	if err := mgr.Import(ctx, format, value); err != nil {
		return fmt.Errorf("vibekit: importing %s token: %w", c.Provider, err)
	}
	fmt.Printf("imported %s token\n", c.Provider)
	return nil
}

func (c *AuthImportCmd) importArg() (oauth.ImportFormat, string, error) {
	switch {
	case c.Token != "":
		return oauth.ImportToken, c.Token, nil
	case c.Refresh != "":
		return oauth.ImportRefresh, c.Refresh, nil
	case c.Env != "":
		return oauth.ImportEnv, c.Env, nil
	case c.File != "":
		return oauth.ImportFile, c.File, nil
	default:
		return "", "", fmt.Errorf("vibekit: auth import requires one of --token, --refresh, --env, or --file")
	}
}

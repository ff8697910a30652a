package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/toolprint/vibekit/pkg/agentkind"
)

// LocalCreateCmd implements `local create`, generalizing the teacher's
// NewCmd from a single fixed image to any agentkind.Kind resolved through
// internal/resolver.
type LocalCreateCmd struct {
	Name      string   `short:"n" placeholder:"<sandbox-id>" help:"id of the sandbox to create or re-attach to; a fresh id is generated if omitted"`
	Agent     string   `short:"a" placeholder:"<a1|a2|a3|a4|a5>" help:"agent kind whose image to use; omit for the neutral base image"`
	WorkDir   string   `short:"w" placeholder:"<dir>" help:"working directory inside the container"`
	Env       []string `short:"e" placeholder:"<K=V>" help:"environment variable to set in the container, repeatable"`
}

func (c *LocalCreateCmd) Run(cctx *Context) error {
	ctx := contextWithCorrelation(cctx)

	env, err := parseEnvPairs(c.Env)
	if err != nil {
		return err
	}

	var kind *agentkind.Kind
	if c.Agent != "" {
		k, err := agentkind.ParseKind(c.Agent)
		if err != nil {
			return fmt.Errorf("vibekit: %w", err)
		}
		kind = &k
	}

	var box interface {
		ID() string
	}
	if c.Name != "" {
		box, err = cctx.boxer.Resume(ctx, c.Name)
	} else {
		box, err = cctx.boxer.Create(ctx, env, kind, c.WorkDir)
	}
	if err != nil {
		return fmt.Errorf("vibekit: creating sandbox: %w", err)
	}

	slog.InfoContext(ctx, "local create", "id", box.ID())
	fmt.Println(box.ID())
	return nil
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	env := map[string]string{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("vibekit: invalid --env value %q, want K=V", p)
		}
		env[k] = v
	}
	return env, nil
}

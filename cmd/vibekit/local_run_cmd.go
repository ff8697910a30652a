package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/toolprint/vibekit/internal/sandbox"
	"github.com/toolprint/vibekit/pkg/agentkind"
)

// LocalRunCmd implements `local run`, generalizing the teacher's
// ExecCmd/ShellCmd split into a single command whose --streaming flag
// picks the streaming vs. buffered execution path, matching spec §6's
// `local run [--sandbox ID] --command "…" [--agent K] [--streaming]`.
type LocalRunCmd struct {
	Sandbox   string `short:"s" required:"" placeholder:"<sandbox-id>" help:"id of the sandbox to run in, created if it does not exist"`
	Command   string `short:"c" required:"" placeholder:"<command>" help:"command to run"`
	Agent     string `short:"a" placeholder:"<a1|a2|a3|a4|a5>" help:"agent kind to use if the sandbox does not yet exist"`
	Streaming bool   `help:"stream stdout/stderr to the terminal as the command runs"`
	TimeoutMS int64  `placeholder:"<ms>" help:"command timeout in milliseconds; zero uses the sandbox default"`
}

func (c *LocalRunCmd) Run(cctx *Context) error {
	ctx := contextWithCorrelation(cctx)

	var kind *agentkind.Kind
	if c.Agent != "" {
		k, err := agentkind.ParseKind(c.Agent)
		if err != nil {
			return fmt.Errorf("vibekit: %w", err)
		}
		kind = &k
	}

	box, err := cctx.boxer.ResumeWithKind(ctx, c.Sandbox, kind)
	if err != nil {
		return fmt.Errorf("vibekit: resuming sandbox %s: %w", c.Sandbox, err)
	}

	opts := sandbox.RunOptions{TimeoutMS: c.TimeoutMS}
	if c.Streaming {
		opts.TTY = term.IsTerminal(int(os.Stdout.Fd()))
		opts.OnStdout = func(chunk []byte) { os.Stdout.Write(chunk) }
		opts.OnStderr = func(chunk []byte) { os.Stderr.Write(chunk) }
	}

	result, runErr := box.Run(ctx, c.Command, opts)
	if !c.Streaming {
		os.Stdout.Write(result.Stdout)
		os.Stderr.Write(result.Stderr)
	}
	if runErr != nil {
		head := c.Command
		if len(head) > 40 {
			head = head[:40]
		}
		return fmt.Errorf("vibekit: running %q in %s: %w", head, c.Sandbox, runErr)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("vibekit: command exited %d", result.ExitCode)
	}
	return nil
}

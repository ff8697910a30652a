package main

import "fmt"

// LocalHelpCmd implements `local help`, a plain-text summary of the
// local command family. Kong already prints per-command usage on
// --help; this exists for the one-shot "what can I do under local"
// question the teacher answers with a generated markdown doc
// (md_help_formatter.go) — generalized here to a short static summary
// since this module has no separate docs site to target.
type LocalHelpCmd struct{}

func (c *LocalHelpCmd) Run(cctx *Context) error {
	fmt.Println(`local manages sandbox containers:

  local create [--name ID] [--agent K] [--work-dir DIR] [--env K=V ...]
  local list   [--status S] [--agent K] [--json] [--yaml]
  local delete [NAMES...] [--all] [--force] [--interactive]
  local run    --sandbox ID --command "..." [--agent K] [--streaming]
  local help

Run "vibekit local <command> --help" for flag details on any of these.`)
	return nil
}

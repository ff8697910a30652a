package main

// LocalCmd groups the sandbox lifecycle subcommands, matching spec §6's
// `local create|list|delete|run|help` surface and generalizing the
// teacher's new_cmd.go/ls_cmd.go/rm_cmd.go/exec_cmd.go/shell_cmd.go from
// one fixed coding tool to any agentkind.Kind.
type LocalCmd struct {
	Create LocalCreateCmd `cmd:"" help:"create a new sandbox"`
	List   LocalListCmd   `cmd:"" help:"list sandboxes"`
	Delete LocalDeleteCmd `cmd:"" help:"delete one or more sandboxes"`
	Run    LocalRunCmd    `cmd:"" help:"run a command in a sandbox"`
	Help   LocalHelpCmd   `cmd:"" help:"print help for the local command family"`
}

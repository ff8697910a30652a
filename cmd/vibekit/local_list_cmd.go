package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// LocalListCmd implements `local list`, generalizing the teacher's LsCmd
// (which shelled to a running daemon) to read directly from the in-process
// Boxer table, since sandboxes in this module are per-process rather than
// daemon-managed.
type LocalListCmd struct {
	Status string `placeholder:"<state>" help:"filter by sandbox state"`
	Agent  string `placeholder:"<a1|a2|a3|a4|a5>" help:"filter by agent kind"`
	JSON   bool   `help:"print as JSON"`
	YAML   bool   `help:"print as YAML"`
}

type localListRow struct {
	ID        string `json:"id" yaml:"id"`
	State     string `json:"state" yaml:"state"`
	AgentKind string `json:"agent_kind,omitempty" yaml:"agent_kind,omitempty"`
	ImageTag  string `json:"image_tag" yaml:"image_tag"`
	WorkDir   string `json:"work_dir" yaml:"work_dir"`
}

func (c *LocalListCmd) Run(cctx *Context) error {
	rows := make([]localListRow, 0)
	for _, box := range cctx.boxer.List() {
		state := box.State()
		if c.Status != "" && state != c.Status {
			continue
		}
		rec := box.Record()
		agent := ""
		if rec.AgentKind != nil {
			agent = string(*rec.AgentKind)
		}
		if c.Agent != "" && agent != c.Agent {
			continue
		}
		rows = append(rows, localListRow{
			ID:        box.ID(),
			State:     state,
			AgentKind: agent,
			ImageTag:  rec.ImageTag,
			WorkDir:   rec.WorkDir,
		})
	}

	switch {
	case c.JSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case c.YAML:
		data, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Errorf("vibekit: rendering sandbox list as yaml: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SANDBOX ID\tSTATE\tAGENT\tIMAGE\tWORK DIR")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.State, r.AgentKind, r.ImageTag, r.WorkDir)
		}
		return w.Flush()
	}
}

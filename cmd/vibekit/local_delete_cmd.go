package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// LocalDeleteCmd implements `local delete`, generalizing the teacher's
// RmCmd concurrent fan-out-over-ids pattern.
type LocalDeleteCmd struct {
	Names       []string `arg:"" optional:"" help:"sandbox ids to delete"`
	Force       bool     `help:"skip the interactive confirmation"`
	All         bool     `help:"delete every sandbox"`
	Interactive bool     `help:"prompt for confirmation even when --force is given"`
}

func (c *LocalDeleteCmd) Run(cctx *Context) error {
	ctx := contextWithCorrelation(cctx)

	ids := c.Names
	if c.All {
		ids = nil
		for _, box := range cctx.boxer.List() {
			ids = append(ids, box.ID())
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("vibekit: no sandbox ids given (pass names, or --all)")
	}

	if !c.Force || c.Interactive {
		if !confirmDelete(ids) {
			return fmt.Errorf("vibekit: deletion cancelled")
		}
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := cctx.boxer.Delete(ctx, id); err != nil {
				errCh <- fmt.Errorf("%s: %w", id, err)
				return
			}
			fmt.Println(id)
		}(id)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		return err
	}
	return nil
}

func confirmDelete(ids []string) bool {
	fmt.Printf("Delete %d sandbox(es): %s? [y/N] ", len(ids), strings.Join(ids, ", "))
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}

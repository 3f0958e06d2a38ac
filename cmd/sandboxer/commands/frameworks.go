package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"

	"git.home.luguber.info/inful/sandboxer/internal/framework"
)

// FrameworksCmd implements the 'frameworks' command.
type FrameworksCmd struct {
	Dependencies bool `short:"d" help:"Show pinned dependency versions"`
}

func (f *FrameworksCmd) Run(g *Global, _ *CLI) error {
	catalog, err := framework.LoadCatalog()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	for _, n := range catalog.Names() {
		def, err := catalog.Definition(n)
		if err != nil {
			return err
		}
		root := def.RootContainer
		if root == "" {
			root = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\troot: %s\n", color.New(color.Bold).Sprint(def.Name), def.Title, root)
		if f.Dependencies {
			for _, dep := range def.DependencyNames() {
				fmt.Fprintf(tw, "\t  %s\t%s\n", dep, def.Dependencies[dep])
			}
		}
	}
	return tw.Flush()
}

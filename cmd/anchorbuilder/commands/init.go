package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/anchorbuilder/internal/config"
)

// InitCmd writes an example anchorbuilder.yaml.
type InitCmd struct {
	Force  bool   `help:"Overwrite an existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to write anchorbuilder.yaml into"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	path := root.Config
	switch {
	case i.Output != "":
		path = filepath.Join(i.Output, DefaultConfigFile)
	case path == "":
		path = DefaultConfigFile
	}
	return RunInit(path, i.Force)
}

// RunInit writes the example configuration to path and tells the user how
// to start the service with it.
func RunInit(path string, force bool) error {
	return runInit(os.Stdout, path, force)
}

func runInit(out io.Writer, path string, force bool) error {
	if err := config.Init(path, force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Wrote %s\n", path)
	_, _ = fmt.Fprintf(out, "Point workspace.root at your Anchor project, then run: anchorbuilder --config %s serve\n", path)
	return nil
}

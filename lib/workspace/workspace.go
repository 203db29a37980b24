package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pescuma/patchtrace/lib/consoles"
	"github.com/pescuma/patchtrace/lib/model"
	"github.com/pescuma/patchtrace/lib/storages"
	"github.com/pescuma/patchtrace/lib/storages/orm"
	"github.com/pescuma/patchtrace/lib/utils"
)

// Workspace bundles the console and the sqlite store where runs accumulate.
type Workspace struct {
	console consoles.Console
	storage storages.Storage
}

func NewWorkspace(file string, verbose bool) (*Workspace, error) {
	if file == "" {
		if _, err := os.Stat("./.patchtrace"); err == nil {
			file = "./.patchtrace/patchtrace.sqlite"
		} else {
			file = "~/.patchtrace/patchtrace.sqlite"
		}
	}

	console := consoles.NewStdOutConsole(verbose)

	var storage storages.Storage
	var err error
	switch {
	case file == ":memory:":
		storage, err = orm.NewGormStorage(orm.WithSqliteInMemory(), console)

	case strings.HasSuffix(file, ".sqlite"):
		file, err = utils.PathAbs(file)
		if err != nil {
			return nil, err
		}

		err = createWorkspaceDir(file)
		if err != nil {
			return nil, err
		}

		storage, err = orm.NewGormStorage(orm.WithSqlite(file), console)

	default:
		return nil, fmt.Errorf("unknown storage type for file %v", file)
	}
	if err != nil {
		return nil, err
	}

	return &Workspace{
		console: console,
		storage: storage,
	}, nil
}

func createWorkspaceDir(file string) error {
	path := filepath.Dir(file)

	if _, err := os.Stat(path); err != nil {
		fmt.Printf("Creating workspace at %v\n", path)
		err = os.MkdirAll(path, 0o700)
		if err != nil {
			return err
		}
	}

	return nil
}

func (w *Workspace) Close() error {
	return w.storage.Close()
}

func (w *Workspace) Console() consoles.Console {
	return w.console
}

func (w *Workspace) WriteRun(run *model.Run) error {
	return w.storage.WriteRun(run)
}

func (w *Workspace) LoadRuns() ([]*model.Run, error) {
	return w.storage.LoadRuns()
}

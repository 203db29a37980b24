package storages

import (
	"github.com/pescuma/patchtrace/lib/model"
)

type Storage interface {
	WriteRun(run *model.Run) error
	LoadRuns() ([]*model.Run, error)

	Close() error
}

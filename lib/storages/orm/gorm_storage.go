package orm

import (
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pescuma/patchtrace/lib/consoles"
	"github.com/pescuma/patchtrace/lib/model"
	"github.com/pescuma/patchtrace/lib/storages"
)

type gormStorage struct {
	db      *gorm.DB
	console consoles.Console
}

func WithSqlite(file string) gorm.Dialector {
	return sqlite.Open(file + "?_pragma=journal_mode(WAL)")
}

func WithSqliteInMemory() gorm.Dialector {
	return sqlite.Open(":memory:")
}

func NewGormStorage(d gorm.Dialector, console consoles.Console) (storages.Storage, error) {
	l := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: false,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(d, &gorm.Config{
		Logger: l,
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&sqlRun{},
		&sqlRunVersion{},
		&sqlRunFile{},
	)
	if err != nil {
		return nil, err
	}

	return &gormStorage{
		db:      db,
		console: console,
	}, nil
}

func (s *gormStorage) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}

	return db.Close()
}

func (s *gormStorage) WriteRun(run *model.Run) error {
	return s.db.Create(newSqlRun(run)).Error
}

func (s *gormStorage) LoadRuns() ([]*model.Run, error) {
	var sqlRuns []*sqlRun
	err := s.db.Order("created_at").Find(&sqlRuns).Error
	if err != nil {
		return nil, err
	}

	var sqlVersions []*sqlRunVersion
	err = s.db.Order("id").Find(&sqlVersions).Error
	if err != nil {
		return nil, err
	}

	var sqlFiles []*sqlRunFile
	err = s.db.Find(&sqlFiles).Error
	if err != nil {
		return nil, err
	}

	filesByVersion := lo.GroupBy(sqlFiles, func(f *sqlRunFile) uint { return f.RunVersionID })
	versionsByRun := lo.GroupBy(sqlVersions, func(v *sqlRunVersion) model.UUID { return v.RunID })

	result := make([]*model.Run, 0, len(sqlRuns))
	for _, sr := range sqlRuns {
		run := sr.toModel()

		for _, sv := range versionsByRun[sr.ID] {
			run.Versions = append(run.Versions, sv.toModel(filesByVersion[sv.ID]))
		}

		result = append(result, run)
	}

	return result, nil
}

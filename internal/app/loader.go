package app

import (
	"context"
	"errors"
	"io/fs"

	"github.com/hance08/dtl/internal/config"
)

// Loader builds the App on first use, so commands that only need the
// configuration never open the database.
type Loader struct {
	migrations fs.FS
	cfg        *config.Config
	app        *App
	cleanup    func()
}

func NewLoader(migrations fs.FS) *Loader {
	return &Loader{migrations: migrations}
}

func (l *Loader) SetConfig(cfg *config.Config) {
	l.cfg = cfg
}

func (l *Loader) Config() *config.Config {
	return l.cfg
}

func (l *Loader) Load(ctx context.Context) (*App, error) {
	if l.app != nil {
		return l.app, nil
	}
	if l.cfg == nil {
		return nil, errors.New("configuration not loaded")
	}

	application, cleanup, err := NewApp(ctx, l.cfg, l.migrations)
	if err != nil {
		return nil, err
	}
	l.app, l.cleanup = application, cleanup
	return application, nil
}

func (l *Loader) Close() {
	if l.cleanup != nil {
		l.cleanup()
		l.cleanup = nil
	}
	l.app = nil
}

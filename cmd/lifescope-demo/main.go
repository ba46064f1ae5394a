// Command lifescope-demo runs a small composition root: a global journal
// and clock shared by every session, and a per-session scoreboard that is
// disposed when the next session begins.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kbukum/lifescope/bootstrap"
	"github.com/kbukum/lifescope/config"
	"github.com/kbukum/lifescope/di"
	"github.com/kbukum/lifescope/installer"
	"github.com/kbukum/lifescope/logger"
	"github.com/kbukum/lifescope/root"
)

// DemoConfig extends the service config with the number of sessions to play.
type DemoConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Sessions             int `yaml:"sessions" mapstructure:"sessions"`
}

func (c *DemoConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Sessions <= 0 {
		c.Sessions = 3
	}
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Journal collects events across sessions.
type Journal interface {
	Record(event string)
	Events() []string
}

type memoryJournal struct {
	mu     sync.Mutex
	events []string
	log    *logger.Logger
}

func (j *memoryJournal) Record(event string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event)
}

func (j *memoryJournal) Events() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

func (j *memoryJournal) Dispose() error {
	j.log.Info("Journal closed", logger.Fields(logger.FieldCount, len(j.Events())))
	return nil
}

// Scoreboard lives for one session.
type Scoreboard struct {
	journal Journal
	started time.Time
	points  int
}

func NewScoreboard(journal Journal, clock Clock) *Scoreboard {
	return &Scoreboard{journal: journal, started: clock.Now()}
}

func (s *Scoreboard) Add(points int) { s.points += points }

func (s *Scoreboard) Dispose() error {
	s.journal.Record(fmt.Sprintf("scoreboard closed with %d points", s.points))
	return nil
}

// Level is never registered; it is built from its declared constructor on
// every lookup.
type Level struct {
	Board *Scoreboard
	Clock Clock
}

func NewLevel(board *Scoreboard, clock Clock) *Level {
	return &Level{Board: board, Clock: clock}
}

func coreInstaller(log *logger.Logger) installer.Installer {
	return installer.New("core", installer.Global, func(s *di.Scope) error {
		if err := di.RegisterInstance[Clock](s, systemClock{}); err != nil {
			return err
		}
		if err := di.RegisterSingleton(s, func(di.Resolver) (Journal, error) {
			return &memoryJournal{log: log}, nil
		}); err != nil {
			return err
		}
		return di.AddConstructor(s, NewLevel)
	}).WithDescription("clock, journal, level constructor")
}

func sessionInstaller() installer.Installer {
	return installer.New("scoreboard", installer.Session, func(s *di.Scope) error {
		return di.ProvideSingleton[*Scoreboard](s, NewScoreboard)
	}).WithInitialize(func(s *di.Scope) error {
		board, err := di.Resolve[*Scoreboard](s)
		if err != nil {
			return err
		}
		board.journal.Record("session " + s.ID() + " started")
		return nil
	})
}

func main() {
	var cfg DemoConfig
	if err := config.LoadConfig("lifescope-demo", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap: %v\n", err)
		os.Exit(1)
	}
	if err := app.Install(coreInstaller(app.Logger), sessionInstaller()); err != nil {
		app.Logger.Error("Install failed", logger.Fields(logger.FieldError, err.Error()))
		os.Exit(1)
	}

	err = app.RunTask(context.Background(), func(ctx context.Context) error {
		return play(ctx, app)
	})
	if err != nil {
		app.Logger.Error("Demo failed", logger.Fields(logger.FieldError, err.Error()))
		os.Exit(1)
	}
}

func play(ctx context.Context, app *bootstrap.App[*DemoConfig]) error {
	for i := 1; i <= app.Cfg.Sessions; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := app.BeginSession(ctx); err != nil {
			return err
		}

		level, err := root.Get[*Level](app.Root)
		if err != nil {
			return err
		}
		level.Board.Add(i * 10)

		app.Logger.Info("Level played", logger.Fields(
			"session", i,
			"points", level.Board.points,
			"elapsed", level.Clock.Now().Sub(level.Board.started).String(),
		))
	}
	if err := app.EndSession(ctx); err != nil {
		return err
	}

	journal := root.MustGet[Journal](app.Root)
	for _, event := range journal.Events() {
		app.Logger.Info("Journal", logger.Fields("event", event))
	}
	return nil
}

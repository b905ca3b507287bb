// Command planctl validates, plans and stores sampling configurations
// without the HTTP service. Configurations are saved to a local sqlite file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/stemsi/exstem-planner/internal/config"
	"github.com/stemsi/exstem-planner/internal/database"
	"github.com/stemsi/exstem-planner/internal/logger"
	"github.com/stemsi/exstem-planner/internal/planfile"
	"github.com/stemsi/exstem-planner/internal/repository"
	"github.com/stemsi/exstem-planner/internal/sampling"
	"github.com/stemsi/exstem-planner/internal/service"
)

// Exit codes.
const (
	exitOK      = 0
	exitError   = 1
	exitPartial = 2
)

// errUsage marks command line mistakes; the usage text has already been printed.
var errUsage = errors.New("usage")

type app struct {
	stdout io.Writer
	stderr io.Writer
	json   bool
	dbPath string
	log    zerolog.Logger
}

func main() {
	cfg := config.Load()
	a := &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		json:   !term.IsTerminal(int(os.Stdout.Fd())),
		dbPath: cfg.PlanctlDB,
		log:    logger.New(os.Stderr, cfg.LogLevel, "pretty"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	code := a.run(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}

func (a *app) usage() {
	fmt.Fprintln(a.stderr, "Usage: planctl <command> [flags]")
	fmt.Fprintln(a.stderr, "Commands:")
	fmt.Fprintln(a.stderr, "  validate -config FILE")
	fmt.Fprintln(a.stderr, "  plan     -config FILE -questions FILE [-seed N]")
	fmt.Fprintln(a.stderr, "  save     -config FILE")
	fmt.Fprintln(a.stderr, "  load     -id ID")
	fmt.Fprintln(a.stderr, "  list     [-page N] [-per-page N]")
	fmt.Fprintln(a.stderr, "Global flags (before the command): -db FILE, -json")
}

// run executes one command and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	global := flag.NewFlagSet("planctl", flag.ContinueOnError)
	global.SetOutput(a.stderr)
	global.StringVar(&a.dbPath, "db", a.dbPath, "sqlite file holding saved configurations")
	forceJSON := global.Bool("json", false, "always print JSON")
	global.Usage = a.usage
	if err := global.Parse(args); err != nil {
		return exitError
	}
	if *forceJSON {
		a.json = true
	}

	rest := global.Args()
	if len(rest) == 0 {
		a.usage()
		return exitError
	}

	var (
		code int
		err  error
	)
	switch rest[0] {
	case "validate":
		code, err = a.validate(ctx, rest[1:])
	case "plan":
		code, err = a.plan(ctx, rest[1:])
	case "save":
		code, err = a.save(ctx, rest[1:])
	case "load":
		code, err = a.load(ctx, rest[1:])
	case "list":
		code, err = a.list(ctx, rest[1:])
	default:
		a.usage()
		return exitError
	}

	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(a.stderr, "planctl %s: %v\n", rest[0], err)
		}
		return exitError
	}
	return code
}

// parse parses command flags, reporting missing required string flags.
func parse(fs *flag.FlagSet, args []string, required map[string]*string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	for name, v := range required {
		if *v == "" {
			fmt.Fprintf(fs.Output(), "flag -%s is required\n", name)
			fs.Usage()
			return errUsage
		}
	}
	return nil
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// openService opens the local store. The caller closes the returned closer.
func (a *app) openService(ctx context.Context) (*service.ConfigurationService, io.Closer, error) {
	db, err := database.NewSQLite(ctx, a.dbPath, a.log)
	if err != nil {
		return nil, nil, err
	}
	store := repository.NewLocalConfigurationRepository(db)
	// No catalog offline: owner distributions get range and sum checks only.
	return service.NewConfigurationService(store, nil, a.log), db, nil
}

func (a *app) validate(ctx context.Context, args []string) (int, error) {
	fs := a.flagSet("validate")
	path := fs.String("config", "", "configuration file (YAML or JSON)")
	if err := parse(fs, args, map[string]*string{"config": path}); err != nil {
		return exitError, err
	}

	cfg, err := planfile.ReadConfiguration(*path)
	if err != nil {
		return exitError, err
	}
	if err := service.NewConfigurationService(nil, nil, a.log).Validate(ctx, cfg); err != nil {
		return exitError, err
	}

	return exitOK, a.printValid(cfg)
}

func (a *app) plan(ctx context.Context, args []string) (int, error) {
	fs := a.flagSet("plan")
	cfgPath := fs.String("config", "", "configuration file (YAML or JSON)")
	questionsPath := fs.String("questions", "", "question bank file (YAML or JSON)")
	seed := fs.Int64("seed", 0, "shuffle seed; equal seeds draw equal plans")
	required := map[string]*string{"config": cfgPath, "questions": questionsPath}
	if err := parse(fs, args, required); err != nil {
		return exitError, err
	}

	cfg, err := planfile.ReadConfiguration(*cfgPath)
	if err != nil {
		return exitError, err
	}
	questions, err := planfile.ReadQuestions(*questionsPath)
	if err != nil {
		return exitError, err
	}
	if err := service.NewConfigurationService(nil, nil, a.log).Validate(ctx, cfg); err != nil {
		return exitError, err
	}

	pool, err := sampling.NewPool(questions)
	if err != nil {
		return exitError, err
	}
	plan, err := sampling.NewPlan(cfg, pool, *seed)
	if err != nil {
		return exitError, err
	}

	if err := a.printPlan(plan); err != nil {
		return exitError, err
	}
	switch plan.Status {
	case sampling.StatusSatisfied:
		return exitOK, nil
	case sampling.StatusPartiallySatisfied:
		return exitPartial, nil
	default:
		return exitError, nil
	}
}

func (a *app) save(ctx context.Context, args []string) (int, error) {
	fs := a.flagSet("save")
	path := fs.String("config", "", "configuration file (YAML or JSON)")
	if err := parse(fs, args, map[string]*string{"config": path}); err != nil {
		return exitError, err
	}

	cfg, err := planfile.ReadConfiguration(*path)
	if err != nil {
		return exitError, err
	}

	svc, closer, err := a.openService(ctx)
	if err != nil {
		return exitError, err
	}
	defer closer.Close()

	id, err := svc.Save(ctx, cfg)
	if err != nil {
		return exitError, err
	}
	saved, err := svc.Load(ctx, id)
	if err != nil {
		return exitError, err
	}

	return exitOK, a.printSaved(saved)
}

func (a *app) load(ctx context.Context, args []string) (int, error) {
	fs := a.flagSet("load")
	id := fs.String("id", "", "configuration id")
	if err := parse(fs, args, map[string]*string{"id": id}); err != nil {
		return exitError, err
	}

	svc, closer, err := a.openService(ctx)
	if err != nil {
		return exitError, err
	}
	defer closer.Close()

	cfg, err := svc.Load(ctx, *id)
	if err != nil {
		return exitError, err
	}
	return exitOK, a.printConfiguration(cfg)
}

func (a *app) list(ctx context.Context, args []string) (int, error) {
	fs := a.flagSet("list")
	page := fs.Int("page", 1, "page number")
	perPage := fs.Int("per-page", 20, "configurations per page")
	if err := parse(fs, args, nil); err != nil {
		return exitError, err
	}

	svc, closer, err := a.openService(ctx)
	if err != nil {
		return exitError, err
	}
	defer closer.Close()

	items, pagination, err := svc.List(ctx, *page, *perPage)
	if err != nil {
		return exitError, err
	}
	return exitOK, a.printList(items, pagination)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/pmdesk/pmdesk/internal/infrastructure/config"
	"github.com/pmdesk/pmdesk/pkg/logger"
)

// Env is what the command tree reads from and writes to.
type Env struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
	// Lookuper resolves PMDESK_* settings. Defaults to the process
	// environment.
	Lookuper envconfig.Lookuper
}

func (e Env) withDefaults() Env {
	if e.In == nil {
		e.In = os.Stdin
	}
	if e.Out == nil {
		e.Out = os.Stdout
	}
	if e.Err == nil {
		e.Err = os.Stderr
	}
	if e.Lookuper == nil {
		e.Lookuper = envconfig.OsLookuper()
	}
	return e
}

type globalFlags struct {
	apiURL   string
	output   string
	logLevel string
	storage  string
}

// state is shared by every command of one invocation.
type state struct {
	env     Env
	flags   globalFlags
	cfg     *config.Config
	app     *App
	printer *Printer
	prompt  *prompter
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, env Env) int {
	env = env.withDefaults()
	root, s := newRoot(env)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	s.close(ctx)
	if err != nil {
		fmt.Fprintf(env.Err, "error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand builds the pmdesk command tree.
func NewRootCommand(env Env) *cobra.Command {
	root, _ := newRoot(env.withDefaults())
	return root
}

func newRoot(env Env) (*cobra.Command, *state) {
	s := &state{env: env, prompt: newPrompter(env.In, env.Err)}

	root := &cobra.Command{
		Use:           "pmdesk",
		Short:         "Work with projects, tasks and teams from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.setup(cmd.Context())
		},
	}
	root.SetIn(env.In)
	root.SetOut(env.Out)
	root.SetErr(env.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&s.flags.apiURL, "api-url", "", "REST API base URL (overrides PMDESK_API_URL)")
	pf.StringVarP(&s.flags.output, "output", "o", formatTable, "output format: table or json")
	pf.StringVar(&s.flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.StringVar(&s.flags.storage, "storage", "", "session storage: file, memory, redis or mongo")

	root.AddCommand(
		newLoginCommand(s),
		newRegisterCommand(s),
		newRegisterCompanyCommand(s),
		newLogoutCommand(s),
		newWhoamiCommand(s),
		newCompanyCommand(s),
		newDashboardCommand(s),
		newProjectsCommand(s),
		newTasksCommand(s),
		newTeamsCommand(s),
		newMembersCommand(s),
		newProfileCommand(s),
		newNotificationsCommand(s),
		newWatchCommand(s),
	)
	return root, s
}

func (s *state) setup(ctx context.Context) error {
	cfg, err := config.LoadWith(ctx, s.env.Lookuper)
	if err != nil {
		return err
	}
	if s.flags.apiURL != "" {
		cfg.APIURL = s.flags.apiURL
	}
	if s.flags.logLevel != "" {
		cfg.LogLevel = s.flags.logLevel
	}
	if s.flags.storage != "" {
		cfg.Storage.Kind = s.flags.storage
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg

	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Output: s.env.Err})

	s.printer, err = newPrinter(s.env.Out, s.flags.output)
	return err
}

// application builds the App on first use so commands like --help never
// touch storage.
func (s *state) application(ctx context.Context) (*App, error) {
	if s.app != nil {
		return s.app, nil
	}
	app, err := NewApp(ctx, s.cfg, navigator{w: s.env.Err})
	if err != nil {
		return nil, err
	}
	s.app = app
	return app, nil
}

func (s *state) close(ctx context.Context) {
	if s.app != nil {
		s.app.Close(ctx)
		s.app = nil
	}
}

// withApp adapts a command body that needs the wired services.
func (s *state) withApp(fn func(cmd *cobra.Command, args []string, a *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := s.application(cmd.Context())
		if err != nil {
			return err
		}
		return fn(cmd, args, a)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/taskboard/taskboard/internal/board"
	"github.com/taskboard/taskboard/internal/client"
	"github.com/taskboard/taskboard/internal/session"
)

// DefaultAPIURL is used when neither --api-url nor TASKBOARD_API_URL is set.
const DefaultAPIURL = "http://localhost:8080/api"

// errReported marks failures that were already shown to the user.
var errReported = errors.New("action failed")

// errNotLoggedIn is returned by commands that need an API key.
var errNotLoggedIn = errors.New("not logged in: run 'board login <api-key>' first")

// cli carries the state shared by all subcommands.
type cli struct {
	out    io.Writer
	errOut io.Writer
	v      *viper.Viper
	logger *slog.Logger

	sess        *session.Session
	logoutDelay time.Duration
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	return newCLI(out, errOut).rootCmd()
}

func newCLI(out, errOut io.Writer) *cli {
	return &cli{
		out:         out,
		errOut:      errOut,
		v:           viper.New(),
		logoutDelay: board.DefaultLogoutDelay,
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "board",
		Short:             "Kanban board for the taskboard API",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	flags := root.PersistentFlags()
	flags.String("api-url", DefaultAPIURL, "taskboard API base URL")
	flags.String("session", "", "session file (defaults to the user config directory)")
	flags.Bool("verbose", false, "log requests to stderr")

	c.v.SetEnvPrefix("TASKBOARD")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	_ = c.v.BindPFlag("api_url", flags.Lookup("api-url"))
	_ = c.v.BindPFlag("session_file", flags.Lookup("session"))
	_ = c.v.BindPFlag("verbose", flags.Lookup("verbose"))

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.boardCmd(),
		c.addCmd(),
		c.quickAddCmd(),
		c.editCmd(),
		c.moveCmd(),
		c.dragCmd(),
		c.rmCmd(),
		c.bulkStatusCmd(),
		c.bulkPriorityCmd(),
		c.statsCmd(),
		c.themeCmd(),
	)
	return root
}

// setup opens the session and configures logging before any subcommand.
func (c *cli) setup(_ *cobra.Command, _ []string) error {
	level := slog.LevelWarn
	if c.v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: level}))

	path := c.v.GetString("session_file")
	if path == "" {
		var err error
		if path, err = session.DefaultPath(); err != nil {
			return err
		}
	}
	sess, err := session.Open(path)
	if err != nil {
		return err
	}
	c.sess = sess
	return nil
}

// apiClient builds a client that reads the key from the session.
func (c *cli) apiClient() (*client.Client, error) {
	if !c.sess.LoggedIn() {
		return nil, errNotLoggedIn
	}
	return client.New(c.v.GetString("api_url"), c.sess, client.WithLogger(c.logger))
}

// coordinator wires a fresh cache and coordinator for one command. The
// logout delay is served synchronously so the command does not exit before
// the session is cleared.
func (c *cli) coordinator() (*board.Coordinator, error) {
	cl, err := c.apiClient()
	if err != nil {
		return nil, err
	}
	coord := board.NewCoordinator(board.NewCache(cl), cl, c.notifier(), c.logout,
		board.WithLogger(c.logger),
		board.WithLogoutDelay(c.logoutDelay),
		board.WithAfterFunc(func(d time.Duration, f func()) {
			time.Sleep(d)
			f()
		}),
	)
	return coord, nil
}

func (c *cli) logout() {
	if err := c.sess.Logout(); err != nil {
		fmt.Fprintf(c.errOut, "Error: failed to clear session: %v\n", err)
		return
	}
	fmt.Fprintln(c.errOut, "Logged out.")
}

func (c *cli) notifier() board.Notifier {
	return board.NotifierFuncs{
		OnSuccess: func(action board.Action) {
			fmt.Fprintln(c.errOut, action.SuccessMessage())
		},
		OnFailure: func(_ board.Action, _ client.Kind, message string) {
			fmt.Fprintf(c.errOut, "Error: %s\n", message)
		},
	}
}

// result turns a coordinator outcome into the command's error.
func result(outcome board.Outcome) error {
	if outcome == board.Failed {
		return errReported
	}
	return nil
}

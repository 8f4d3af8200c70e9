// Package main provides the CLI entrypoint for tuirace.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/tuirace/internal/config"
	"github.com/verte-zerg/tuirace/internal/game"
	"github.com/verte-zerg/tuirace/internal/p2p"
	"github.com/verte-zerg/tuirace/internal/session"
	"github.com/verte-zerg/tuirace/internal/stats"
	"github.com/verte-zerg/tuirace/internal/store"
	"github.com/verte-zerg/tuirace/internal/tui"
)

const defaultPracticeText = "The quick brown fox jumps over the lazy dog."

const (
	lookupRetries = 10
	lookupDelay   = 2 * time.Second
)

var (
	practiceUser    string
	practiceNoGhost bool

	hostUser      string
	hostPort      int
	hostBootstrap []string
	hostLogFile   string

	joinUser      string
	joinPort      int
	joinBootstrap []string
	joinLogFile   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuirace [file]",
		Short:         "TUI typing race",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}
	rootCmd.Flags().StringVar(&practiceUser, "user", "", "display name (default: $USER)")
	rootCmd.Flags().BoolVar(&practiceNoGhost, "no-ghost", false, "disable ghost replay of the best record")

	rootCmd.AddCommand(newHostCmd())
	rootCmd.AddCommand(newJoinCmd())
	rootCmd.AddCommand(newRecordsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "user", &practiceUser, fileCfg.Race.User)
	applyBoolConfig(cmd, "no-ghost", &practiceNoGhost, fileCfg.Race.NoGhost)
	if practiceUser == "" {
		practiceUser = defaultUserName()
	}

	text := defaultPracticeText
	syntax := ""
	if len(args) == 1 {
		text, syntax, err = readTextFile(args[0])
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	opts := game.PracticeOptions{
		Text: text,
		User: practiceUser,
	}
	if !practiceNoGhost {
		sum, rec, err := st.LoadBestOrLatest(ctx, store.TextKey(text))
		switch {
		case err == nil:
			opts.GhostRecord = &rec
			opts.GhostName = fmt.Sprintf("ghost (%s)", sum.User)
		case errors.Is(err, store.ErrNoRecord):
			// First run for this text; race alone.
		default:
			return fmt.Errorf("failed to load ghost record: %w", err)
		}
	}

	view := tui.NewView(text, syntax, practiceUser, nil)
	opts.Renderer = view
	opts.Keys = view.Keys()
	res, err := runWithView(view, func() (game.Result, error) {
		return game.RunPractice(ctx, opts), nil
	})
	if err != nil {
		return err
	}
	return saveAndReport(ctx, st, text, practiceUser, res)
}

func newHostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host <file>",
		Short: "Host a race session",
		Args:  cobra.ExactArgs(1),
		RunE:  runHostCmd,
	}
	cmd.Flags().StringVar(&hostUser, "user", "", "display name, also the discovery key (default: $USER)")
	cmd.Flags().IntVar(&hostPort, "port", 0, "TCP listen port (default: random)")
	cmd.Flags().StringSliceVar(&hostBootstrap, "bootstrap", nil, "bootstrap peer multiaddrs")
	cmd.Flags().StringVar(&hostLogFile, "log-file", "", "structured log file path")
	return cmd
}

func runHostCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "user", &hostUser, fileCfg.Race.User)
	applyIntConfig(cmd, "port", &hostPort, fileCfg.Network.ListenPort)
	applyStringConfig(cmd, "log-file", &hostLogFile, fileCfg.Network.LogFile)
	applySliceConfig(cmd, "bootstrap", &hostBootstrap, fileCfg.Network.Bootstrap)
	if hostUser == "" {
		hostUser = defaultUserName()
	}

	text, syntax, err := readTextFile(args[0])
	if err != nil {
		return err
	}

	logger, err := config.NewFileLogger(logPathOr(hostLogFile))
	if err != nil {
		return err
	}
	defer syncLogger(logger)

	ctx := cmd.Context()
	svc, err := p2p.NewService(ctx, logger, hostPort, hostBootstrap)
	if err != nil {
		return fmt.Errorf("failed to start p2p service: %w", err)
	}
	defer closeService(logger, svc)
	client := session.NewClient(logger, svc)

	sessionID, err := session.NewSessionID()
	if err != nil {
		return err
	}
	meta, err := session.EncodeMetadata(session.Metadata{Text: text, Syntax: syntax})
	if err != nil {
		return fmt.Errorf("failed to encode session metadata: %w", err)
	}
	events, err := client.Host(ctx, hostUser, session.Data{SessionID: sessionID, Metadata: meta})
	if err != nil {
		return err
	}

	fmt.Printf("Hosting as %q (peer %s). Listening on:\n", hostUser, client.PeerID())
	for _, addr := range svc.Addrs() {
		fmt.Printf("  %s\n", addr)
	}
	fmt.Println("Waiting for racers; press Enter to lock registrations and start.")

	trigger := make(chan struct{})
	go func() {
		defer close(trigger)
		if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
			// Stdin gone; the lock still fires so the host can race alone.
			_ = err
		}
	}()

	roster := session.NewRoster()
	roster.Register(client.PeerID(), hostUser)
	start, err := client.TakeRegistrations(ctx, events, roster, trigger)
	if err != nil {
		return fmt.Errorf("failed to take registrations: %w", err)
	}
	fmt.Printf("Locked with %d racer(s); starting...\n", roster.Len())

	view := tui.NewView(text, syntax, hostUser, nil)
	res, err := runWithView(view, func() (game.Result, error) {
		return game.RunRace(ctx, game.RaceOptions{
			Log:      logger,
			Client:   client,
			Roster:   roster,
			User:     hostUser,
			Text:     text,
			Start:    start,
			Events:   events,
			Renderer: view,
			Keys:     view.Keys(),
		})
	})
	if err != nil {
		return err
	}

	if err := client.Publish(ctx, session.CmdEnd, nil); err != nil {
		logger.Warn("failed to end session", zap.Error(err))
	}
	game.WaitGrace(ctx)
	if err := client.StopHosting(ctx, hostUser); err != nil {
		logger.Warn("failed to stop hosting", zap.Error(err))
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logErrf("failed to open db: %v\n", err)
		st = nil
	} else {
		defer closeStore(st)
	}
	return saveAndReport(ctx, st, text, hostUser, res)
}

func newJoinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join <host>",
		Short: "Join a hosted race session",
		Args:  cobra.ExactArgs(1),
		RunE:  runJoinCmd,
	}
	cmd.Flags().StringVar(&joinUser, "user", "", "display name (default: $USER)")
	cmd.Flags().IntVar(&joinPort, "port", 0, "TCP listen port (default: random)")
	cmd.Flags().StringSliceVar(&joinBootstrap, "bootstrap", nil, "bootstrap peer multiaddrs")
	cmd.Flags().StringVar(&joinLogFile, "log-file", "", "structured log file path")
	return cmd
}

func runJoinCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "user", &joinUser, fileCfg.Race.User)
	applyIntConfig(cmd, "port", &joinPort, fileCfg.Network.ListenPort)
	applyStringConfig(cmd, "log-file", &joinLogFile, fileCfg.Network.LogFile)
	applySliceConfig(cmd, "bootstrap", &joinBootstrap, fileCfg.Network.Bootstrap)
	if joinUser == "" {
		joinUser = defaultUserName()
	}
	hostName := args[0]

	logger, err := config.NewFileLogger(logPathOr(joinLogFile))
	if err != nil {
		return err
	}
	defer syncLogger(logger)

	ctx := cmd.Context()
	svc, err := p2p.NewService(ctx, logger, joinPort, joinBootstrap)
	if err != nil {
		return fmt.Errorf("failed to start p2p service: %w", err)
	}
	defer closeService(logger, svc)
	client := session.NewClient(logger, svc)

	fmt.Printf("Looking up session hosted by %q...\n", hostName)
	data, err := lookupSession(ctx, client, hostName)
	if err != nil {
		return err
	}
	meta, err := session.DecodeMetadata(data.Metadata)
	if err != nil {
		return fmt.Errorf("failed to decode session metadata: %w", err)
	}

	events, err := client.Join(ctx, data.SessionID)
	if err != nil {
		return err
	}
	fmt.Println("Registered; waiting for the host to start the race.")
	lock, early, err := client.AwaitLock(ctx, events, joinUser)
	if err != nil {
		return fmt.Errorf("failed while waiting for session lock: %w", err)
	}
	roster := session.RosterFrom(lock.RegisteredUsers)
	localName, ok := roster.Lookup(client.PeerID())
	if !ok {
		return fmt.Errorf("host locked the session without our registration (name %q may be taken)", joinUser)
	}
	start, err := session.ParseStartTime(lock.SessionStart)
	if err != nil {
		return err
	}
	fmt.Printf("Racing as %q against %d other(s)...\n", localName, roster.Len()-1)

	view := tui.NewView(meta.Text, meta.Syntax, localName, nil)
	res, err := runWithView(view, func() (game.Result, error) {
		return game.RunRace(ctx, game.RaceOptions{
			Log:      logger,
			Client:   client,
			Roster:   roster,
			User:     localName,
			Text:     meta.Text,
			Start:    start,
			Events:   events,
			Early:    early,
			Renderer: view,
			Keys:     view.Keys(),
		})
	})
	if err != nil {
		return err
	}

	game.WaitGrace(ctx)
	if err := client.Leave(ctx); err != nil {
		logger.Warn("failed to leave session", zap.Error(err))
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logErrf("failed to open db: %v\n", err)
		st = nil
	} else {
		defer closeStore(st)
	}
	return saveAndReport(ctx, st, meta.Text, localName, res)
}

func newRecordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "records [file]",
		Short: "List stored input records",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRecordsCmd,
	}
}

func runRecordsCmd(cmd *cobra.Command, args []string) error {
	key := ""
	if len(args) == 1 {
		text, _, err := readTextFile(args[0])
		if err != nil {
			return err
		}
		key = store.TextKey(text)
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)

	summaries, err := st.ListRecords(cmd.Context(), key)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}
	return stats.RenderRecords(cmd.OutOrStdout(), summaries)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return `# tuirace configuration

[race]
# user = "racer"
# no-ghost = false

[network]
# listen-port = 0
# bootstrap = ["/ip4/10.0.0.1/tcp/4001/p2p/QmPeer"]
# log-file = "` + config.DefaultLogPath() + `"
`
}

func lookupSession(ctx context.Context, client *session.Client, hostName string) (session.Data, error) {
	var lastErr error
	for i := 0; i < lookupRetries; i++ {
		if i > 0 {
			timer := time.NewTimer(lookupDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return session.Data{}, ctx.Err()
			}
		}
		data, err := client.Lookup(ctx, hostName)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !errors.Is(err, p2p.ErrRecordNotFound) {
			break
		}
	}
	return session.Data{}, lastErr
}

func runWithView(view *tui.View, run func() (game.Result, error)) (game.Result, error) {
	type raceDone struct {
		res game.Result
		err error
	}
	done := make(chan raceDone, 1)
	go func() {
		res, err := run()
		view.Stop()
		done <- raceDone{res: res, err: err}
	}()
	if err := view.Run(); err != nil {
		return game.Result{}, err
	}
	out := <-done
	return out.res, out.err
}

func saveAndReport(ctx context.Context, st *store.Store, text, user string, res game.Result) error {
	if res.Outcome == game.Aborted {
		fmt.Println("Race aborted.")
	}
	if st != nil && res.Record.Len() > 0 {
		if _, err := st.SaveRecord(ctx, store.TextKey(text), user, res.Record, res.Finished); err != nil {
			logErrf("failed to save record: %v\n", err)
		}
	}
	return stats.RenderReport(os.Stdout, res.Standings, res.Samples, res.Mistakes)
}

func readTextFile(path string) (text, syntax string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read text file: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")
	if content == "" {
		return "", "", fmt.Errorf("text file %s is empty", path)
	}
	return content, strings.TrimPrefix(filepath.Ext(path), "."), nil
}

func defaultUserName() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "racer"
}

func logPathOr(path string) string {
	if path != "" {
		return path
	}
	return config.DefaultLogPath()
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}

func closeService(logger *zap.Logger, svc *p2p.Service) {
	if err := svc.Close(); err != nil {
		logger.Warn("failed to close p2p service", zap.Error(err))
	}
}

func syncLogger(logger *zap.Logger) {
	if err := logger.Sync(); err != nil {
		// Best-effort flush; stderr sync fails on some platforms.
		_ = err
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applySliceConfig(cmd *cobra.Command, name string, target *[]string, value []string) {
	if len(value) == 0 {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), value...)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

package commands

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/kgviz/am"
	"github.com/teranos/kgviz/errors"
	"github.com/teranos/kgviz/logger"
	"github.com/teranos/kgviz/server"
	"github.com/teranos/kgviz/source"
)

// ServerCmd starts the kgviz server
var ServerCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"serve"},
	Short:   "Serve graphs over HTTP and websocket",
	Long: `Launch the kgviz server. Websocket clients on /ws each get their own
session and receive rendered frames as they change the view; the HTTP API
under /api/graphs lists, renders and exports graphs.

Configuration files are watched: layout, render and interaction changes apply
to open sessions without a restart. A watched graph directory is rescanned on
change and open sessions reload their graph.`,
	RunE: runServer,
}

var (
	serverPort    int
	serverDir     string
	serverNoWatch bool
)

func init() {
	ServerCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "Port to listen on (overrides server.port)")
	ServerCmd.Flags().StringVar(&serverDir, "dir", "", "Serve graphs from this directory (overrides source config)")
	ServerCmd.Flags().BoolVar(&serverNoWatch, "no-watch", false, "Do not watch config files for changes")
}

func runServer(cmd *cobra.Command, args []string) error {
	level := verbosity(cmd)
	if level == 0 {
		level = logger.VerbosityInfo
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := cliLogger("kgviz")
	if serverDir != "" {
		cfg.Source.Kind = source.KindFile
		cfg.Source.Dir = serverDir
	}

	// The source is opened before the server exists; reloads wait for it
	var srv atomic.Pointer[server.Server]
	src, err := openSource(cfg, "", log, func() {
		if s := srv.Load(); s != nil {
			s.SourceChanged()
		}
	})
	if err != nil {
		return err
	}
	defer src.Close()

	s, err := server.New(cfg, src, log)
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}
	srv.Store(s)

	if !serverNoWatch {
		if err := watchConfig(cmd, s); err != nil {
			log.Warnw("Config hot reload disabled", logger.FieldError, err)
		}
	}

	port := cfg.ServerPort()
	if serverPort != 0 {
		port = serverPort
	}

	printStartupBanner(level, cfg, src.Kind)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start(port, func(url string) {
			pterm.Success.Printf("Listening on %s (websocket %s/ws)\n", url, url)
		})
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return errors.Wrap(err, "server stopped")
	case <-sigChan:
		pterm.Info.Println("Shutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- s.Stop()
		}()

		select {
		case err := <-shutdownDone:
			if err != nil {
				return errors.Wrap(err, "shutdown error")
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			pterm.Warning.Println("Force shutdown - exiting immediately")
			os.Exit(1)
			return nil
		}
	}
}

// watchConfig hot-reloads the --config file, or the files of the cascade
func watchConfig(cmd *cobra.Command, s *server.Server) error {
	var (
		w   *am.ConfigWatcher
		err error
	)
	if path := configPath(cmd); path != "" {
		w, err = am.WatchFile(path)
	} else {
		files := am.ConfigFiles()
		if len(files) == 0 {
			return nil
		}
		w, err = am.NewConfigWatcher(files...)
	}
	if err != nil {
		return err
	}
	s.WatchConfig(w)
	return nil
}

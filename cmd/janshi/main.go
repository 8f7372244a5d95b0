package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arl/statsviz"
	"github.com/spf13/cobra"

	"janshi/internal/app"
	"janshi/internal/config"
	"janshi/internal/domain"
	"janshi/internal/logx"
	"janshi/internal/ports"
	"janshi/internal/ports/akochan"
	"janshi/internal/ports/bridge"
	"janshi/internal/store"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "janshi",
	Short: "janshi riichi agent",
	Long:  `janshi is an automated riichi decision agent speaking the mjai protocol.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "answer mjai events on stdin with decision records on stdout",
	RunE:  runStdio,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve decisions over the NATS bridge",
	RunE:  runServe,
}

var decideCmd = &cobra.Command{
	Use:   "decide [logfile]",
	Short: "answer one decision for a recorded event log",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecide,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "configFile", "", "resource file")
	rootCmd.AddCommand(runCmd, serveCmd, decideCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("error happen: %v", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	logx.Init(cfg.Log.Prefix, cfg.Log.Level)
	return cfg, nil
}

func buildSolver(cfg *config.Config) ports.ExternalSolver {
	if cfg.Solver.Path == "" {
		return nil
	}
	s, err := akochan.New(cfg.Solver)
	if err != nil {
		logx.Warn("solver disabled: %v", err)
		return nil
	}
	return s
}

// runStdio drives one seat over stdin/stdout, one JSON line per message.
// Every received line gets exactly one answer line; a line the agent
// cannot use still answers none so the server never stalls on us.
func runStdio(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	priors, err := store.Open(cfg.Redis)
	if err != nil {
		logx.Warn("priors store: %v", err)
		priors = store.NewMemory()
	}
	svc := app.NewService(cfg, priors, buildSolver(cfg))
	defer svc.Close()

	id, err := svc.NewSession()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	out := bufio.NewWriter(os.Stdout)

	for in.Scan() {
		line := bytes.TrimSpace(in.Bytes())
		if len(line) == 0 {
			continue
		}

		ev, err := domain.ParseEvent(line)
		if err == nil && ev.Type == "hello" {
			out.WriteString(`{"type":"join","name":"janshi","room":"default"}` + "\n")
			out.Flush()
			continue
		}

		rec := domain.Record{Type: domain.EventNone}
		if err != nil {
			logx.Warn("stdin: %v", err)
		} else if rec, err = svc.React(ctx, id, []domain.Event{ev}); err != nil {
			logx.Warn("react: %v", err)
			rec = domain.Record{Type: domain.EventNone}
		}

		b, err := json.Marshal(rec)
		if err != nil {
			logx.Error("encode record: %v", err)
			b = []byte(`{"type":"none"}`)
		}
		out.Write(b)
		out.WriteByte('\n')
		out.Flush()
	}
	return in.Err()
}

// runServe hosts the NATS bridge until a shutdown signal arrives.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	priors, err := store.Open(cfg.Redis)
	if err != nil {
		return err
	}
	svc := app.NewService(cfg, priors, buildSolver(cfg))

	br := bridge.New(cfg.Bridge, svc)
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := br.Run(ctx); err != nil {
		svc.Close()
		return err
	}

	var stats *http.Server
	if cfg.Debug.StatsAddr != "" {
		mux := http.NewServeMux()
		if err := statsviz.Register(mux); err != nil {
			logx.Warn("statsviz: %v", err)
		} else {
			stats = &http.Server{Addr: cfg.Debug.StatsAddr, Handler: mux}
			go func() {
				logx.Info("stats on http://localhost%s/debug/statsviz/", cfg.Debug.StatsAddr)
				if err := stats.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logx.Error("stats server: %v", err)
				}
			}()
		}
	}

	stop := func() {
		if stats != nil {
			shutdownCtx, cancelStats := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelStats()
			if err := stats.Shutdown(shutdownCtx); err != nil {
				logx.Error("stats shutdown: %v", err)
			}
		}
		br.Close()
		if err := svc.Close(); err != nil {
			logx.Error("close service: %v", err)
		}
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	select {
	case <-ctx.Done():
		stop()
		return nil
	case s := <-c:
		logx.Info("signal %v, shutting down", s)
		stop()
		return nil
	}
}

// runDecide replays a recorded event log once and prints the record for
// its final decision point.
func runDecide(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	svc := app.NewService(cfg, store.NewMemory(), buildSolver(cfg))
	defer svc.Close()

	id, err := svc.NewSession()
	if err != nil {
		return err
	}
	rec, err := svc.ReactLines(cmd.Context(), id, payload)
	if err != nil {
		return err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	os.Stdout.Write(append(b, '\n'))
	return nil
}

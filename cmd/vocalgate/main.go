package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"vocalgate/internal/config"
	"vocalgate/internal/discord"
	"vocalgate/internal/gate"
	"vocalgate/internal/logging"
	"vocalgate/internal/store"
)

func main() {
	sub := "run"
	if len(os.Args) > 1 {
		sub = os.Args[1]
	}

	var code int
	switch sub {
	case "run":
		code = runBot()
	case "check":
		code = checkConfig()
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n\n", sub)
		printUsage(os.Stderr)
		code = 2
	}
	os.Exit(code)
}

func printUsage(w *os.File) {
	fmt.Fprintln(w, "usage: vocalgate [run|check]")
	fmt.Fprintln(w, "  run    connect and gate the configured voice channel (default)")
	fmt.Fprintln(w, "  check  validate the environment configuration and exit")
}

func runBot() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := logging.New(logging.Options{Env: cfg.LogEnv, Level: cfg.LogLevel})
	defer func() { _ = logger.Sync() }()

	st := store.New(cfg.DataDir, logger.Named("store"))
	guard := gate.NewGuard(cfg.Operators, cfg.OperatorMode)
	allow := gate.NewAllowList(st.LoadUserSet(), st.LoadRoleSet(), guard, st)
	flag := gate.NewEnforcement(st.LoadLockFlag(), st)

	users, roles := allow.Counts()
	logger.Info("state loaded",
		zap.Int("users", users),
		zap.Int("roles", roles),
		zap.Bool("armed", flag.Armed()),
		zap.String("channel", cfg.VoiceChannelID))

	bot, err := discord.New(cfg, guard, allow, flag, logger.Named("discord"))
	if err != nil {
		logger.Error("failed to build bot", zap.Error(err))
		return 1
	}
	if err := bot.Start(); err != nil {
		logger.Error("failed to connect", zap.Error(err))
		return 1
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	if err := bot.Stop(); err != nil {
		logger.Warn("close error", zap.Error(err))
	}
	return 0
}

func checkConfig() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}
	fmt.Printf("config ok: prefix=%q channel=%s operators=%d blocked_roles=%d mode=%s data_dir=%s\n",
		cfg.Prefix, cfg.VoiceChannelID, len(cfg.Operators), len(cfg.BlockedRoles), cfg.OperatorMode, cfg.DataDir)
	return 0
}

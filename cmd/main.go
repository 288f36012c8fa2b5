package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"orange-console/internal/api"
	"orange-console/internal/config"
	"orange-console/internal/console"
	"orange-console/internal/download"
	"orange-console/internal/logging"
	"orange-console/internal/session"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "orange-console: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Parse(args)
	if err != nil {
		return err
	}

	logger, err := logging.Open(cfg.LogFile)
	if err != nil {
		logger.Warnf("Logging to stderr: %v", err)
	}
	defer logger.Close()

	sess, err := session.Open(cfg.SessionFile, cfg.Secret)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	if cfg.Logout {
		if err := sess.Logout(); err != nil {
			return err
		}
		logger.Infof("Session cleared")
		fmt.Println("Logged out.")
		return nil
	}

	if !sess.Active() {
		if err := login(sess, promptSecret, os.Stderr); err != nil {
			return err
		}
		logger.Infof("Logged in")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	client := api.New(cfg.ServerURL, httpClient)
	logger.Infof("Using catalog at %s", client.BaseURL())

	var downloader *download.Downloader
	if cfg.PreviewDir != "" {
		downloader = download.New(httpClient, cfg.PreviewDir)
		downloader.Resolve = client.ResolveAsset
	}

	app := console.New(console.Options{
		Client:     client,
		Downloader: downloader,
		Logger:     logger,
		Session:    sess,
		Workers:    cfg.Workers,
		StartPage:  cfg.StartPage,
	})

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	app.Start(ctx, program.Send)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run console: %w", err)
	}
	if app.LoggedOut() {
		fmt.Println("Logged out.")
	}
	return nil
}

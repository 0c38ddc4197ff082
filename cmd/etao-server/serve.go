// eTAO - Encrypted TAO Graph Query Engine
// Copyright (C) 2025 eTAO-project
//
// This file is part of eTAO.
//
// eTAO is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// eTAO is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with eTAO. If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/etao-project/etao/config"
	"github.com/etao-project/etao/internal/logger"
	"github.com/etao-project/etao/pkg/storage/postgres"
	"github.com/etao-project/etao/query"
	"github.com/etao-project/etao/tao"
)

var serveConfigFile string

var serveCmd = &cobra.Command{
	Use:   "serve <env-path> <cache-size> <encrypt:yes|no>",
	Short: "Start the TAO query server",
	Args:  cobra.ExactArgs(3),
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigFile, "config", "", "optional YAML server settings file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.NewDefaultLogger()

	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	cacheSize, err := strconv.Atoi(args[1])
	if err != nil || cacheSize < 0 {
		return fmt.Errorf("invalid cache size %q", args[1])
	}
	cfg.Server.CacheSize = cacheSize
	cfg.Server.Encrypt = args[2] == "yes"

	if serveConfigFile != "" {
		if err := cfg.LoadServerFile(serveConfigFile); err != nil {
			return err
		}
	}

	crypto, err := query.NewTaoCrypto(cfg.Keys.OPEKey, cfg.Keys.AESKey, cfg.Server.CacheSize, cfg.Server.Encrypt)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.Database.ConnString())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	srv := tao.NewServer(store, crypto, log)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Error("shutdown failed", logger.Error(err))
		}
	}()

	log.Info("TAO server configured",
		logger.String("listen", cfg.Server.ListenAddr),
		logger.Int("cache_size", cfg.Server.CacheSize),
		logger.Any("encrypt", cfg.Server.Encrypt))

	return srv.Start(cfg.Server.ListenAddr)
}

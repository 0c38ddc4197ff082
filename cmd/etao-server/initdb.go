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
	"github.com/spf13/cobra"

	"github.com/etao-project/etao/config"
	"github.com/etao-project/etao/internal/logger"
	"github.com/etao-project/etao/pkg/storage/postgres"
	"github.com/etao-project/etao/query"
	"github.com/etao-project/etao/tao"
)

var (
	initdbSeed    bool
	initdbEncrypt bool
)

var initdbCmd = &cobra.Command{
	Use:   "initdb <env-path>",
	Short: "Create the graph schema, optionally loading the sample graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runInitdb,
}

func init() {
	initdbCmd.Flags().BoolVar(&initdbSeed, "seed", false, "load the sample social graph")
	initdbCmd.Flags().BoolVar(&initdbEncrypt, "encrypt", true, "seed with field encryption, matching serve encrypt:yes")
	rootCmd.AddCommand(initdbCmd)
}

func runInitdb(cmd *cobra.Command, args []string) error {
	log := logger.NewDefaultLogger()
	ctx := cmd.Context()

	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}

	store, err := postgres.NewStore(ctx, cfg.Database.ConnString())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Bootstrap(ctx); err != nil {
		return err
	}
	log.Info("schema created")

	if !initdbSeed {
		return nil
	}

	crypto, err := query.NewTaoCrypto(cfg.Keys.OPEKey, cfg.Keys.AESKey, 0, initdbEncrypt)
	if err != nil {
		return err
	}
	if err := tao.NewServer(store, crypto, log).Seed(ctx); err != nil {
		return err
	}
	log.Info("sample graph loaded")
	return nil
}

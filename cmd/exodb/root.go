/*
 * Copyright (c) 2024. Shuojiang Liu.
 * Licensed under the MIT License (the "License");
 * you may not use this file except in compliance with the License.
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exodb/exodb"
	"github.com/exodb/exodb/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var rootCmd = &cobra.Command{
	Use:   "exodb <snapshot-path>",
	Short: "ExoDB - a small in-memory key-value database server",
	Long: `ExoDB is an in-memory key-value database server speaking a Redis-like
text protocol. It stores binary strings (with optional TTLs) and sorted
sets, and persists the dataset to a single snapshot file on SAVE and on
graceful shutdown.`,
	Args:          cobra.ExactArgs(1),
	RunE:          runServer,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringP("host", "H", "0.0.0.0", "Host to bind to")
	rootCmd.Flags().IntP("port", "p", 15000, "Port to listen on")
	rootCmd.Flags().Duration("sweep-interval", 2*time.Second, "Period of the expired-key sweep")
	rootCmd.Flags().String("index-type", "btree", "Key index type (btree, art)")
	rootCmd.Flags().Bool("mmap", false, "Load the snapshot through mmap")

	viper.SetEnvPrefix("EXODB")
	viper.AutomaticEnv()

	_ = viper.BindPFlag("host", rootCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("port", rootCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("sweep_interval", rootCmd.Flags().Lookup("sweep-interval"))
	_ = viper.BindPFlag("index_type", rootCmd.Flags().Lookup("index-type"))
	_ = viper.BindPFlag("mmap", rootCmd.Flags().Lookup("mmap"))
}

func runServer(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer func() {
		_ = log.Sync()
	}()

	options := exodb.DefaultOptions
	options.SnapshotPath = args[0]
	options.MMapAtStartUp = viper.GetBool("mmap")

	switch viper.GetString("index_type") {
	case "btree":
		options.IndexType = exodb.BTree
	case "art":
		options.IndexType = exodb.ART
	default:
		return fmt.Errorf("unknown index type %q", viper.GetString("index_type"))
	}

	store, err := exodb.Open(options)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	// a malformed snapshot is reported but does not prevent startup
	if err := store.Load(); err != nil {
		if !errors.Is(err, exodb.ErrBadSnapshot) {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}
		log.Warn("snapshot not loaded, starting empty", zap.Error(err))
	}

	serverOptions := server.Options{
		Addr:          fmt.Sprintf("%s:%d", viper.GetString("host"), viper.GetInt("port")),
		SweepInterval: viper.GetDuration("sweep_interval"),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(store, serverOptions, log).Run(ctx)
}

func newLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true

	return zap.Must(logConfig.Build())
}

// Execute is the main entry point for the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package cmd

import (
	"context"
	"errors"
	"erdv/internal/server"
	"erdv/internal/store"
	"erdv/internal/workspace"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the diagram HTTP API",
	Long: `Starts an HTTP server that normalizes, renders, loads and saves diagrams.
Files are read from and written to the configured storage: a local
directory (--root) or a MinIO bucket.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().String("root", ".", "Directory served by the local storage provider")
	serveCmd.Flags().StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("storage.root", serveCmd.Flags().Lookup("root"))
	viper.BindPFlag("server.cors_origins", serveCmd.Flags().Lookup("cors-origins"))
}

func runServe(cmd *cobra.Command, args []string) error {
	if !strings.EqualFold(cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := store.New(cmd.Context(), cfg.Storage)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := server.New(cfg.Server, workspace.New(st, log), log)

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}

	log.Info("Shutting down server gracefully ...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.ErrorWith("server shutdown", err, nil)
		return err
	}
	log.Info("Server exiting")
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/przemekoduje/overo/internal/annotate"
	"github.com/przemekoduje/overo/internal/auth"
	"github.com/przemekoduje/overo/internal/catalog"
	"github.com/przemekoduje/overo/internal/web"
)

var (
	serveHost    string
	servePort    int
	serveCatalog string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the lookbook and the admin editor",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("host") {
			serveHost = cfg.Server.Host
		}
		if !cmd.Flags().Changed("port") {
			servePort = cfg.Server.Port
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if cfg.Admin.PasswordHash == "" {
			klog.Warning("admin.password_hash is not set; editor login is disabled")
		}

		srv := &web.Server{
			Store:    s,
			Auth:     auth.New(cfg.Admin.Email, cfg.Admin.PasswordHash, cfg.Admin.SessionTTL, cfg.Admin.LoginRate),
			Media:    newProcessor(),
			Products: newFetcher(),
			Editors:  annotate.NewRegistry(cfg.Admin.SessionTTL),
			Addr:     fmt.Sprintf("%s:%d", serveHost, servePort),
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if serveCatalog != "" {
			f, err := catalog.Load(serveCatalog)
			if err != nil {
				return err
			}
			im := &catalog.Importer{Store: s, Uploader: srv.Media, BaseDir: filepath.Dir(serveCatalog)}
			rep, err := im.Import(ctx, f)
			if err != nil {
				return fmt.Errorf("seeding from %s: %w", serveCatalog, err)
			}
			klog.Infof("seeded %d looks from %s", rep.Looks, serveCatalog)

			go func() {
				err := catalog.Watch(ctx, serveCatalog, 200*time.Millisecond, func() error {
					f, err := catalog.Load(serveCatalog)
					if err != nil {
						return err
					}
					rep, err := im.Import(ctx, f)
					if err != nil {
						return err
					}
					klog.Infof("reloaded %s: %d looks, %d hotspots written, %d kept", serveCatalog, rep.Looks, rep.Hotspots, rep.Skipped)
					return nil
				})
				if err != nil {
					klog.Errorf("catalog watch stopped: %v", err)
				}
			}()
		}

		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Host to listen on")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveCatalog, "catalog", "", "Seed from this catalog file and re-import it when it changes")
	rootCmd.AddCommand(serveCmd)
}

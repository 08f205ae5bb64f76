package webserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"inventory-analytics/config"
)

func StartWebServer(ctx context.Context) error {
	log := config.GetLogger()

	addr, err := config.GetWebServerAddr()
	if err != nil {
		return fmt.Errorf("error getting web server address: %w", err)
	}
	certFile, keyFile, err := config.GetTLSCertFiles()
	if err != nil {
		return fmt.Errorf("error getting TLS cert files for web server: %w", err)
	}
	fileTimeout, err := config.GetRequestTimeout("file")
	if err != nil {
		return fmt.Errorf("error getting file timeout for web server: %w", err)
	}

	httpServer := &http.Server{
		Addr:           addr,
		Handler:        NewMux(),
		ReadTimeout:    fileTimeout,
		WriteTimeout:   fileTimeout + 10*time.Second,
		IdleTimeout:    2 * time.Minute,
		MaxHeaderBytes: 1 << 20,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx // Propagate cancellation to requests
		},
	}
	useTLS := certFile != "" && keyFile != ""
	if useTLS {
		httpServer.TLSConfig = tlsConfig()
	}

	serverErr := make(chan error, 1)
	go func() {
		var err error
		if useTLS {
			log.Info("Starting HTTPS web server on " + addr + "...")
			err = httpServer.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Info("Starting HTTP web server on " + addr + "...")
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down web server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down web server: %w", err)
		}
		log.Info("Web server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}

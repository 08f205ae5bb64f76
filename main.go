package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"inventory-analytics/config"
	"inventory-analytics/database"
	"inventory-analytics/webserver"
)

func main() {
	startTime := time.Now()
	fmt.Fprintln(os.Stdout, "Starting inventory analytics...")
	fmt.Fprintln(os.Stdout, "Server time: "+startTime.Format("2006-01-02 15:04:05"))

	// Recover from panics
	defer func() {
		if recoveryErr := recover(); recoveryErr != nil {
			fmt.Fprintln(os.Stderr, "Panic: "+fmt.Sprint(recoveryErr))
			fmt.Fprintln(os.Stderr, "Stack:\n"+string(debug.Stack()))
			time.Sleep(10 * time.Millisecond) // Buffer
			os.Exit(1)
		}
	}()

	// Initialize application
	if _, err := config.InitApp(); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize application: "+err.Error())
		os.Exit(1)
	}
	defer config.CloseLogFile()

	log := config.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The database is optional; without it the database endpoints answer 503
	var dbConn *sql.DB
	if config.IsDatabaseConfigured() {
		dbName, dbHost, dbPort, dbUsername, dbPassword, err := config.GetDatabaseCredentials()
		if err != nil {
			log.Error("Failed to get database credentials: " + err.Error())
			os.Exit(1)
		}
		dbConn, err = database.NewDBConnection(log, dbName, dbHost, dbPort, dbUsername, dbPassword)
		if err != nil {
			log.Error("Failed to connect to database: " + err.Error())
			os.Exit(1)
		}
		schemaCtx, schemaCancel := context.WithTimeout(ctx, 10*time.Second)
		err = database.NewRepo(dbConn).EnsureSchema(schemaCtx)
		schemaCancel()
		if err != nil {
			log.Error("Failed to create database schema: " + err.Error())
			os.Exit(1)
		}
		if err := config.SetDatabaseConn(dbConn); err != nil {
			log.Error("Failed to set database connection: " + err.Error())
			os.Exit(1)
		}
	} else {
		log.Info("No database configured, database load and save are disabled")
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 10) // Buffer for multiple errors

	wg.Go(func() {
		if err := webserver.StartWebServer(ctx); err != nil {
			errChan <- err
		}
	})

	// Start background processes
	wg.Go(func() {
		defer func() {
			if recoveryErr := recover(); recoveryErr != nil {
				log.Error("Background process panic: " + fmt.Sprint(recoveryErr))
				log.Error("Stack:\n" + string(debug.Stack()))
				select {
				case errChan <- fmt.Errorf("background process panic: %v", recoveryErr):
				default:
					log.Warn("Error channel full, cannot send panic error (func main - backgroundProcesses)")
				}
			}
		}()
		log.Info("Starting background processes...")
		backgroundProcesses(ctx)
	})

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	log.Info("Server started in: " + time.Since(startTime).String())

	select {
	case sig := <-shutdown:
		log.Info("Shutdown signal received: " + sig.String())
	case err := <-errChan:
		log.Error("Server error, exiting: " + err.Error())
	}

	cancel() // Cancel context to stop the web server
	// Drain additional errors
	go func() {
		deadline := time.After(1 * time.Second)
		for {
			select {
			case err, ok := <-errChan:
				if !ok {
					return
				}
				log.Error("Additional error logged while shutting down: " + err.Error())
			case <-deadline:
				return
			}
		}
	}()

	// Wait for the web server to stop with timeout
	webServerShutdownCTX, webServerCTXCancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer webServerCTXCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Web server stopped gracefully")
	case <-webServerShutdownCTX.Done():
		log.Error("Shutdown timed out, forcing exit")
	}

	if dbConn != nil {
		// Close database connection with timeout
		dbCloseCtx, dbCloseCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dbCloseCancel()

		dbCloseDone := make(chan struct{})
		go func() {
			dbConn.Close()
			close(dbCloseDone)
		}()

		select {
		case <-dbCloseDone:
			log.Info("Database connection closed")
		case <-dbCloseCtx.Done():
			log.Error("Database close timed out")
		}
	}

	log.Info("Inventory analytics stopped.")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"golang.org/x/term"

	"intelhub/internal/api"
	"intelhub/internal/config"
	"intelhub/internal/data"
	"intelhub/internal/logger"
	"intelhub/internal/service"
)

func main() {
	// Check for CLI subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "reset-password":
			handleResetPassword(os.Args[2:])
			return
		case "import":
			handleImport()
			return
		case "help", "--help", "-h":
			printHelp()
			return
		default:
			fmt.Printf("Unknown command: %s\n", os.Args[1])
			printHelp()
			os.Exit(1)
		}
	}

	// No subcommand, start the server
	startServer()
}

func printHelp() {
	fmt.Println("IntelHub - Multi-Domain Intelligence Platform")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  intelhub                           Start the server")
	fmt.Println("  intelhub import                    Bulk-load seed files from the data dir")
	fmt.Println("  intelhub reset-password -u <user>  Reset user password (interactive)")
	fmt.Println("  intelhub help                      Show this help")
}

func handleResetPassword(args []string) {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	username := fs.String("u", "", "Username to reset")
	fs.Parse(args)

	if *username == "" {
		fmt.Println("Usage: intelhub reset-password -u <username>")
		os.Exit(1)
	}

	// Interactive password input (hidden)
	fmt.Print("New password: ")
	passBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // newline after hidden input
	if err != nil {
		fmt.Printf("Failed to read password: %v\n", err)
		os.Exit(1)
	}
	password := string(passBytes)

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Printf("Failed to read password: %v\n", err)
		os.Exit(1)
	}

	if password != string(confirmBytes) {
		fmt.Println("Passwords do not match.")
		os.Exit(1)
	}

	if password == "" {
		fmt.Println("Password cannot be empty.")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := data.InitDB(cfg.DBPath)
	if err != nil {
		fmt.Printf("Failed to init database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	authSvc := service.NewAuthService(data.NewUserRepo(db))
	if err := authSvc.ResetPassword(*username, password); err != nil {
		fmt.Printf("Failed to reset password: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Password for user '%s' has been reset successfully.\n", *username)
}

// handleImport loads users.txt and the per-domain CSVs from the data dir.
// Each load is idempotent, so rerunning is safe.
func handleImport() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init("logs"); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	db, err := data.InitDB(cfg.DBPath)
	if err != nil {
		fmt.Printf("Failed to init database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	importSvc := service.NewImportService(
		data.NewUserRepo(db),
		data.NewIncidentRepo(db),
		data.NewTicketRepo(db),
		data.NewDatasetRepo(db),
	)

	loads := []struct {
		name string
		file string
		run  func(string) (service.Report, error)
	}{
		{"users", "users.txt", importSvc.ImportUsers},
		{"incidents", "incidents.csv", importSvc.ImportIncidentsCSV},
		{"tickets", "tickets.csv", importSvc.ImportTicketsCSV},
		{"datasets", "datasets.csv", importSvc.ImportDatasetsCSV},
	}

	for _, l := range loads {
		path := filepath.Join(cfg.DataDir, l.file)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			fmt.Printf("%s: %s not found, skipping\n", l.name, path)
			continue
		}
		report, err := l.run(path)
		if err != nil {
			fmt.Printf("%s: import failed: %v\n", l.name, err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d inserted, %d skipped\n", l.name, report.Inserted, report.Skipped)
	}
}

func startServer() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\nCheck .env file or INTELHUB_KEY environment variable.\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	if err := logger.Init("logs"); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info.Println("Starting IntelHub...")

	// 3. Initialize DB
	db, err := data.InitDB(cfg.DBPath)
	if err != nil {
		logger.Error.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	// 4. Initialize Repos
	userRepo := data.NewUserRepo(db)
	incidentRepo := data.NewIncidentRepo(db)
	ticketRepo := data.NewTicketRepo(db)
	datasetRepo := data.NewDatasetRepo(db)

	// 5. Initialize Services
	authSvc := service.NewAuthService(userRepo)

	// 6. Initialize Handlers
	webHandler := api.NewWebHandler(incidentRepo, ticketRepo, datasetRepo, userRepo)
	authHandler := api.NewAuthHandler(authSvc, cfg.Key, webHandler.GetTemplates())
	statsHandler := api.NewStatsHandler(incidentRepo, ticketRepo, datasetRepo)

	// 7. Start Server
	r := chi.NewRouter()
	r.Use(api.LoggingMiddleware)

	// Rate Limiters
	loginLimiter := api.NewRateLimiter(5, 3)   // 5 req/min, burst 3 (brute force protection)
	statsLimiter := api.NewRateLimiter(60, 10) // 60 req/min, burst 10

	// Public Routes
	r.Get("/setup", authHandler.SetupPage)
	r.Post("/setup", authHandler.DoSetup)
	r.Get("/login", authHandler.LoginPage)
	r.With(loginLimiter.Middleware).Post("/login", authHandler.DoLogin)
	r.Get("/register", authHandler.RegisterPage)
	r.With(loginLimiter.Middleware).Post("/register", authHandler.DoRegister)
	r.Get("/logout", authHandler.Logout)

	// Session-gated pages
	r.Group(func(r chi.Router) {
		r.Use(authHandler.RequireUser)
		webHandler.RegisterRoutes(r)

		// Admin-only user management
		r.With(authHandler.RequireAdmin).Get("/admin/users", webHandler.UsersList)

		// JSON stats feeding the dashboard charts
		r.Route("/api/stats", func(r chi.Router) {
			r.Use(statsLimiter.MiddlewareBySession)
			r.Mount("/", statsHandler.Routes())
		})
	})

	// Static files (Public)
	webHandler.RegisterStatic(r)

	// CSRF protection for the form posts
	csrfMiddleware := csrf.Protect(
		[]byte(cfg.Key)[:32],
		csrf.Secure(false), // Set to true in production with HTTPS
		csrf.Path("/"),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: csrfMiddleware(r),
	}

	// Graceful shutdown channel
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info.Printf("Server listening on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error.Fatalf("Server startup failed: %v", err)
		}
	}()

	<-stop
	logger.Info.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error.Printf("Server shutdown error: %v", err)
	}
	logger.Info.Println("Server stopped")
}

package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/example/munje/internal/chooser"
	"github.com/example/munje/internal/database"
	"github.com/example/munje/internal/importer"
	"github.com/example/munje/internal/notifier"
	"github.com/example/munje/internal/queue"
	"github.com/example/munje/internal/scheduler"
	"github.com/example/munje/internal/server"
)

func main() {
	importFile := flag.String("import", "", "import questions from an .xlsx or .csv file and exit")
	importAuthor := flag.String("author", "", "author user id for imported questions")
	flag.Parse()

	// Load .env into the environment, then let viper pick settings up from
	// config.yaml or the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables only")
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		log.Println("Could not find config.yaml, using environment variables only")
	}
	viper.SetDefault("port", "8080")
	viper.SetDefault("time_unit", "days")
	viper.SetDefault("strategy", string(queue.StrategySpacedRepetition))

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if *importFile != "" {
		runImport(*importFile, *importAuthor)
		return
	}

	unit := chooser.Days
	if viper.GetString("time_unit") == "minutes" {
		unit = chooser.Minutes
	}
	service := queue.NewService(unit, queue.StrategyName(viper.GetString("strategy")))

	tg, err := notifier.New(viper.GetString("telegram_bot_token"))
	if err != nil {
		log.Fatalf("Failed to create notifier: %v", err)
	}
	sched := scheduler.New(tg, unit)
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:    ":" + viper.GetString("port"),
		Handler: server.New(service),
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal: %v", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped successfully")
}

func runImport(path, authorID string) {
	config := importer.DefaultConfig()
	config.FilePath = path
	config.AuthorID = authorID

	result, err := importer.ImportQuestions(context.Background(), config)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Printf("Imported %d of %d questions (%d skipped)", result.Created, result.TotalProcessed, result.Skipped)
	for _, msg := range result.Errors {
		log.Printf("Import error: %s", msg)
	}
}

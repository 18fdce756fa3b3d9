package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpHdlr "comptadoc/handler/http"
	"comptadoc/src/core/document"
	"comptadoc/src/core/search"
	"comptadoc/src/core/user"
	"comptadoc/src/infrastructure/integrations/insight"
	"comptadoc/src/infrastructure/job"
	"comptadoc/src/storage/minioctrl"
	"comptadoc/src/storage/postgres/documentctrl"
	"comptadoc/src/storage/postgres/userctrl"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the document API server",
	Long:  `The serve command starts the HTTP server exposing document upload, sharing and search.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	settingDefaultConfig()
}

func runServer(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %v", err)
	}
	defer sqlDB.Close()

	documentStore, err := documentctrl.NewService(db)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %v", err)
	}
	userStore, err := userctrl.NewService(db)
	if err != nil {
		return fmt.Errorf("failed to initialize user store: %v", err)
	}

	minioService, err := minioctrl.NewService(
		viper.GetString("minio.endpoint"),
		viper.GetString("minio.access_key"),
		viper.GetString("minio.secret_key"),
		viper.GetString("minio.documents_bucket"),
		viper.GetBool("minio.use_ssl"),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize minio service: %v", err)
	}
	if err := minioService.EnsureBucketExists(context.Background()); err != nil {
		return fmt.Errorf("failed to ensure documents bucket: %v", err)
	}

	insightClient := insight.NewClient(
		viper.GetString("insight.url"),
		&http.Client{Timeout: 10 * time.Second},
	)

	vectorIndex := search.NewVectorIndex()
	userService := user.NewService(userStore)
	docService := document.NewService(documentStore, minioService, userService, vectorIndex)
	searchService := search.NewService(documentStore, insightClient, vectorIndex)

	// Jobs are published here and consumed by the worker command.
	amqpPublisher, err := amqp.NewPublisher(
		amqp.NewDurableQueueConfig(viper.GetString("amqp.url")),
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return err
	}
	defer amqpPublisher.Close()

	jobRepo, err := job.NewPostgresRepository(db)
	if err != nil {
		return fmt.Errorf("failed to initialize job repository: %v", err)
	}
	processTask := job.NewProcessDocumentTask(documentStore, docService, minioService, insightClient)
	jobService := job.NewService(amqpPublisher, jobRepo, watermill.NewStdLogger(false, false), processTask)

	// Setup gin router
	r := gin.Default()

	handler := httpHdlr.NewHandler(docService, searchService, userService, jobService)
	handler.RegisterRoutes(r)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Printf("Invalid shutdown timeout: %v, using default 5s", err)
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

func openDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		viper.GetString("postgres.host"),
		viper.GetString("postgres.user"),
		viper.GetString("postgres.password"),
		viper.GetString("postgres.db"),
		viper.GetString("postgres.port"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}
	return db, nil
}

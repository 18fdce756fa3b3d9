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

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"comptadoc/src/core/document"
	"comptadoc/src/core/search"
	"comptadoc/src/core/user"
	"comptadoc/src/infrastructure/integrations/insight"
	"comptadoc/src/infrastructure/job"
	"comptadoc/src/storage/minioctrl"
	"comptadoc/src/storage/postgres/documentctrl"
	"comptadoc/src/storage/postgres/userctrl"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background job worker",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
	settingDefaultConfig()
}

func runWorker(cmd *cobra.Command, args []string) error {
	logger := watermill.NewStdLogger(false, false)

	db, err := openDB()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %v", err)
	}
	defer sqlDB.Close()

	// Initialize AMQP publisher
	amqpPublisher, err := amqp.NewPublisher(
		amqp.NewDurableQueueConfig(viper.GetString("amqp.url")),
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return err
	}
	defer amqpPublisher.Close()

	// Initialize AMQP subscriber
	subscriberConfig := amqp.NewDurableQueueConfig(viper.GetString("amqp.url"))
	subscriberConfig.Consume.NoRequeueOnNack = true
	amqpSubscriber, err := amqp.NewSubscriber(
		subscriberConfig,
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		return err
	}
	defer amqpSubscriber.Close()

	// Initialize router
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return err
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: time.Second,
			Logger:          logger,
		}.Middleware,
	)

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

	insightClient := insight.NewClient(
		viper.GetString("insight.url"),
		&http.Client{Timeout: 10 * time.Second},
	)

	vectorIndex := search.NewVectorIndex()
	userService := user.NewService(userStore)
	docService := document.NewService(documentStore, minioService, userService, vectorIndex)

	processTask := job.NewProcessDocumentTask(documentStore, docService, minioService, insightClient)

	jobRepo, err := job.NewPostgresRepository(db)
	if err != nil {
		return fmt.Errorf("failed to initialize job repository: %v", err)
	}
	jobService := job.NewService(amqpPublisher, jobRepo, logger, processTask)

	// Add handler for processing jobs
	router.AddNoPublisherHandler(
		"job_processor",
		job.TopicJobs,
		amqpSubscriber,
		func(msg *message.Message) error {
			return jobService.ProcessMessage(msg)
		},
	)

	// Run the router
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := router.Run(ctx)
		if err != nil {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c

	log.Println("Shutting down...")
	cancel()
	<-router.Running()
	log.Println("Router stopped")

	return nil
}

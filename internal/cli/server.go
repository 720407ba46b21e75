package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"proctor-quiz-service/internal/app"
	"proctor-quiz-service/internal/auth"
	"proctor-quiz-service/internal/config"
	"proctor-quiz-service/internal/infra/memory"
	pgstore "proctor-quiz-service/internal/infra/postgres"
	redisstore "proctor-quiz-service/internal/infra/redis"
	"proctor-quiz-service/internal/notify"
	transport "proctor-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	// repositories: Postgres when configured, in-memory demo mode otherwise
	var (
		students  interface {
			app.StudentRepository
			auth.StudentRepository
		}
		teachers  auth.TeacherRepository
		quizzes   app.QuizRepository
		questions app.QuestionRepository
		attempts  app.AttemptRepository
		keyLoader memory.AnswerKeyLoader
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		questionRepo := pgstore.NewQuestionRepository(pool)
		students = pgstore.NewStudentRepository(pool)
		teachers = pgstore.NewTeacherRepository(pool)
		quizzes = pgstore.NewQuizRepository(pool)
		questions = questionRepo
		attempts = pgstore.NewAttemptRepository(pool)
		keyLoader = questionRepo
	} else {
		log.Printf("no postgres configured, running with in-memory storage")
		questionStore := memory.NewQuestionStore()
		students = memory.NewStudentStore()
		teachers = memory.NewTeacherStore()
		quizzes = memory.NewQuizStore()
		questions = questionStore
		attempts = memory.NewAttemptStore()
		keyLoader = memory.NewQuestionAnswerKeyLoader(questionStore)
	}

	keyTTL := config.TTLDuration(cfg.Quiz.AnswerKeyTTL, 10*time.Minute)
	var answerKeys interface {
		app.AnswerKeyProvider
		app.AnswerKeyInvalidator
	}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		answerKeys = redisstore.NewAnswerKeyCache(client, keyLoader, keyTTL)
	} else {
		answerKeys = memory.NewAnswerKeyCache(keyLoader, keyTTL)
	}

	var notifier app.Notifier = notify.Noop{}
	if cfg.Notifier.URL != "" {
		notifier = notify.NewEmailClient(cfg.Notifier.URL, config.TTLDuration(cfg.Notifier.Timeout, 5*time.Second))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	authService := auth.NewService(students, teachers, tokens)
	if err := seedTeacher(ctx, authService, cfg); err != nil {
		return err
	}

	feed := app.NewLeaderboardFeed()
	quizService := app.NewQuizService(quizzes, questions, students, attempts).WithAnswerKeyInvalidator(answerKeys)
	attemptService := app.NewAttemptService(attempts, quizzes, students, answerKeys, notifier, feed)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(authService, quizService, attemptService, feed),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting proctor quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedTeacher bootstraps the default teacher account once per deployment.
func seedTeacher(ctx context.Context, authService *auth.Service, cfg config.Config) error {
	name := cfg.Auth.Seed.Name
	if name == "" {
		name = "Admin Teacher"
	}
	email := cfg.Auth.Seed.Email
	if email == "" {
		email = "admin@quiz.com"
	}
	password := cfg.Auth.Seed.Password
	if password == "" {
		password = "admin123"
	}
	return authService.EnsureDefaultTeacher(ctx, name, email, password)
}

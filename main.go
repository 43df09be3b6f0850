package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"screening-bot/internal/api"
	"screening-bot/internal/config"
	"screening-bot/internal/engine"
	"screening-bot/internal/evaluator"
	"screening-bot/internal/hubspot"
	"screening-bot/internal/logger"
	"screening-bot/internal/metrics"
	"screening-bot/internal/server"
	"screening-bot/internal/session"
	"screening-bot/internal/storage"
)

func main() {
	fmt.Println("🚀 Запуск Screening Bot...")

	// Загружаем переменные окружения; отсутствие .env — не ошибка
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Файл .env не найден, используем окружение процесса")
	}

	appCfg := config.LoadAppConfig()

	if err := appCfg.OpenAI.ValidateConfig(); err != nil {
		log.Fatalf("Некорректная конфигурация OpenAI: %v", err)
	}

	zapLogger, err := logger.New(appCfg.LogJSON, appCfg.Debug)
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer zapLogger.Sync()

	// Загружаем сценарий интервью
	cfg, err := config.Load(appCfg.InterviewPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации интервью: %v", err)
	}

	// Инициализируем сервисы
	fmt.Println("🔧 Инициализация сервисов...")

	m := metrics.NewMetrics()

	client := api.NewClient(&appCfg.OpenAI, m, zapLogger)
	fmt.Println("✅ Клиент генерации инициализирован")

	store := session.NewStore()
	eng := engine.New(cfg, store, client, m, zapLogger)
	fmt.Println("✅ Движок интервью инициализирован")

	evalService := evaluator.New(cfg, client, zapLogger)
	followUp := engine.NewFollowUpEngine(cfg, client, zapLogger)

	// Интеграция с HubSpot опциональна: без токена бот работает,
	// но оценки остаются только на диске
	var hubspotClient *hubspot.Client
	if appCfg.HubSpot.AccessToken != "" {
		hubspotClient = hubspot.NewClient(appCfg.HubSpot.AccessToken, appCfg.HubSpot.BaseURL, zapLogger)
		fmt.Println("✅ Интеграция с HubSpot включена")
	} else {
		fmt.Println("⚠️ HUBSPOT_ACCESS_TOKEN не задан, синхронизация с CRM отключена")
	}

	resultStorage := storage.New(appCfg.ResultsDir)

	srv := server.New(appCfg, eng, followUp, evalService, hubspotClient, resultStorage, m, zapLogger)

	// Выводим информацию о конфигурации
	fmt.Println("\n📋 Конфигурация:")
	fmt.Printf("• Позиция: %s\n", cfg.Role.Title)
	fmt.Printf("• Компетенций: %d\n", cfg.Skills.Len())
	fmt.Printf("• Лимит ходов: %d\n", cfg.Interview.MaxTurns)
	fmt.Printf("• Порт: %d\n", appCfg.Server.Port)

	fmt.Println("\n🤖 Screening Bot запущен!")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		zapLogger.Fatal("сервер завершился с ошибкой", zap.Error(err))
	}
}

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/app"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/config"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/logger"
	"github.com/OrlandoSonhos/eutenhosonhos-sub001/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiGreen = "\033[32m"
	ansiBlue  = "\033[34m"
	ansiCyan  = "\033[36m"
)

func main() {
	printStartupBanner()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if cfg.Server.Mode == "release" {
		if isWeakSecret(cfg.JWT.SecretKey) {
			stdLog.Fatalf("JWT secret is weak or still the default; configure a strong random key in production")
		}
	} else if isWeakSecret(cfg.JWT.SecretKey) {
		stdLog.Printf("warning: JWT secret is weak or still the default; replace it before going to production")
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("database init failed: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("database migration failed: %v", err)
	}

	defaultAdminEmail := os.Getenv("ETS_DEFAULT_ADMIN_EMAIL")
	defaultAdminPass := os.Getenv("ETS_DEFAULT_ADMIN_PASSWORD")
	if cfg.Server.Mode == "release" && defaultAdminPass == "" {
		stdLog.Printf("warning: ETS_DEFAULT_ADMIN_PASSWORD not set, skipped default admin init")
	} else if err := models.InitDefaultAdmin(defaultAdminEmail, defaultAdminPass); err != nil {
		stdLog.Printf("warning: default admin init failed: %v", err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "run mode: all (default), api, worker")
	flag.Parse()

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("service exited with error: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiCyan + "███████╗██╗   ██╗    ████████╗███████╗███╗   ██╗██╗  ██╗ ██████╗ " + ansiReset)
	fmt.Println(ansiCyan + "██╔════╝██║   ██║    ╚══██╔══╝██╔════╝████╗  ██║██║  ██║██╔═══██╗" + ansiReset)
	fmt.Println(ansiCyan + "█████╗  ██║   ██║       ██║   █████╗  ██╔██╗ ██║███████║██║   ██║" + ansiReset)
	fmt.Println(ansiCyan + "██╔══╝  ██║   ██║       ██║   ██╔══╝  ██║╚██╗██║██╔══██║██║   ██║" + ansiReset)
	fmt.Println(ansiCyan + "███████╗╚██████╔╝       ██║   ███████╗██║ ╚████║██║  ██║╚██████╔╝" + ansiReset)
	fmt.Println(ansiCyan + "╚══════╝ ╚═════╝        ╚═╝   ╚══════╝╚═╝  ╚═══╝╚═╝  ╚═╝ ╚═════╝ " + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "Eu Tenho Sonhos API" + ansiReset)
	fmt.Println(ansiBlue + "• https://github.com/OrlandoSonhos/eutenhosonhos-sub001" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}

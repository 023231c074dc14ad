package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/limaJavier/timetabling-planner/internal/config"
	"github.com/limaJavier/timetabling-planner/internal/logger"
	"github.com/limaJavier/timetabling-planner/internal/server"
	"github.com/limaJavier/timetabling-planner/pkg/localsolver"

	"github.com/gin-gonic/gin"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatalf("cannot load settings: %v", err)
	}

	addrPtr := flag.String("addr", settings.SolverdAddr, "Address the solver service listens on")
	flag.Parse()

	appLogger, err := logger.New(settings.LogMode)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer appLogger.Sync()

	if settings.LogMode == "prod" || settings.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	solverServer := server.New(localsolver.New(appLogger), appLogger)
	if err := solverServer.Run(ctx, *addrPtr); err != nil {
		appLogger.Error("solver service stopped", "error", err)
		appLogger.Sync()
		os.Exit(1)
	}
}

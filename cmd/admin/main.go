package main

import (
	"context"
	"time"

	"github.com/niksmo/modelshop-admin/config"
	"github.com/niksmo/modelshop-admin/internal/app"
	"github.com/niksmo/modelshop-admin/pkg/sigctx"
)

const closeTimeout = 10 * time.Second

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	adminService := app.New(sigCtx, cfg)

	adminService.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	adminService.Close(ctx)
}

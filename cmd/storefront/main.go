package main

import (
	"context"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/app"
	"github.com/niksmo/storefront/pkg/sigctx"
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	storefront := app.New(sigCtx, cfg)

	storefront.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.CloseTimeout)
	defer cancel()

	storefront.Close(ctx)
}

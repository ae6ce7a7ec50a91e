package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/bouvin87/SystemBySelections-sub001/app"
	"github.com/bouvin87/SystemBySelections-sub001/config"
	"github.com/bouvin87/SystemBySelections-sub001/database"
	"github.com/bouvin87/SystemBySelections-sub001/httpx"
	"github.com/bouvin87/SystemBySelections-sub001/log"
	"github.com/bouvin87/SystemBySelections-sub001/routes"
	"github.com/bouvin87/SystemBySelections-sub001/scheduler"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	bearerServer := httpx.NewBearerServer(db, cfg)

	app := app.App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
	}

	sweeper := scheduler.Start(app)
	defer sweeper.Stop()

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}

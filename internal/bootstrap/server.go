package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avelora/farewatch/api"
	"github.com/avelora/farewatch/config"
	"github.com/avelora/farewatch/internal/service/alerts"
	"github.com/avelora/farewatch/internal/service/booking"
	"github.com/gin-gonic/gin"
)

// Run starts the HTTP server and blocks until the context is canceled
// or the server fails.
func Run(ctx context.Context, cfg *config.Config, bookingSvc booking.BookingUseCase, alertSvc alerts.AlertUseCase) error {
	router := gin.Default()

	api.NewBookingHandler(bookingSvc).Register(router.Group("/bookings"))
	api.NewAlertHandler(alertSvc).Register(router.Group("/alerts"))

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

package handlers

import (
	"tabletap-order-service/internal/cart"
	"tabletap-order-service/internal/config"
	"tabletap-order-service/internal/queue"
	"tabletap-order-service/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config
	Queue  *queue.Client
	Carts  *cart.Store
	Media  *storage.ObjectStore
}

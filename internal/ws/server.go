package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"tabletap-order-service/internal/auth"
	"tabletap-order-service/internal/config"
	"tabletap-order-service/internal/order"
	"tabletap-order-service/internal/utils"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server fans out committed database changes to websocket clients. Each
// stream has one LISTEN connection regardless of how many clients are
// attached; the notify channels are fired inside the writing transactions.
type Server struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Config config.Config

	adminOrders *adminOrdersRealtime
	publicOrder *publicOrderRealtime
	waiterCalls *waiterCallsRealtime
}

func New(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config) *Server {
	return &Server{
		DB:     db,
		Logger: logger,
		Config: cfg,
		adminOrders: &adminOrdersRealtime{db: db, logger: logger,
			subs: make(map[*wsRealtimeClient]struct{})},
		publicOrder: &publicOrderRealtime{db: db, logger: logger,
			subs: make(map[string]map[*wsRealtimeClient]struct{})},
		waiterCalls: &waiterCallsRealtime{db: db, logger: logger,
			subs: make(map[*wsRealtimeClient]struct{})},
	}
}

type wsRealtimeClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsRealtimeClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(value)
}

func (c *wsRealtimeClient) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// scanOrderRow mirrors the handler layer's orders projection for the ws
// snapshots.
const orderColumns = `
	id, table_number, items, total_amount, status, revision,
	special_notes, admin_message, customer_message, rating, feedback,
	created_at, updated_at
`

func scanOrderRow(row interface{ Scan(dest ...any) error }) (order.Order, error) {
	var (
		o            order.Order
		itemsRaw     []byte
		totalAmount  pgtype.Numeric
		specialNotes pgtype.Text
		adminMsg     pgtype.Text
		customerMsg  pgtype.Text
		rating       pgtype.Int4
		feedback     pgtype.Text
	)
	if err := row.Scan(
		&o.ID, &o.TableNumber, &itemsRaw, &totalAmount, &o.Status, &o.Revision,
		&specialNotes, &adminMsg, &customerMsg, &rating, &feedback,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return o, err
	}

	o.TotalAmount = utils.NumericToFloat64(totalAmount)
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &o.Items); err != nil {
			return o, err
		}
	}
	if o.Items == nil {
		o.Items = []order.Line{}
	}
	if specialNotes.Valid {
		o.SpecialNotes = &specialNotes.String
	}
	if adminMsg.Valid {
		o.AdminMessage = &adminMsg.String
	}
	if customerMsg.Valid {
		o.CustomerMessage = &customerMsg.String
	}
	if rating.Valid {
		v := int(rating.Int32)
		o.Rating = &v
	}
	if feedback.Valid {
		o.Feedback = &feedback.String
	}
	return o, nil
}

// --------------------
// Admin: all active orders
// --------------------

type adminOrdersRealtime struct {
	db     *pgxpool.Pool
	logger *zap.Logger

	started sync.Once
	mu      sync.RWMutex
	subs    map[*wsRealtimeClient]struct{}
}

func (ar *adminOrdersRealtime) ensureStarted() {
	ar.started.Do(func() {
		go ar.listenLoop(context.Background())
	})
}

func (ar *adminOrdersRealtime) subscribe(client *wsRealtimeClient) (unsubscribe func()) {
	ar.mu.Lock()
	ar.subs[client] = struct{}{}
	ar.mu.Unlock()

	return func() {
		ar.mu.Lock()
		delete(ar.subs, client)
		ar.mu.Unlock()
	}
}

func (ar *adminOrdersRealtime) broadcast(message any) {
	ar.mu.RLock()
	clients := make([]*wsRealtimeClient, 0, len(ar.subs))
	for c := range ar.subs {
		clients = append(clients, c)
	}
	ar.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(message); err != nil {
			_ = c.conn.Close()
			ar.mu.Lock()
			delete(ar.subs, c)
			ar.mu.Unlock()
		}
	}
}

func (ar *adminOrdersRealtime) fetchActiveOrders(ctx context.Context) ([]order.Order, error) {
	query := `
		select ` + orderColumns + `
		from orders
		where status in ($1, $2)
		order by created_at desc
	`
	rows, err := ar.db.Query(ctx, query, order.StatusPending, order.StatusInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]order.Order, 0)
	for rows.Next() {
		o, err := scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (ar *adminOrdersRealtime) listenLoop(ctx context.Context) {
	backoff := time.Second
	for {
		conn, err := ar.db.Acquire(ctx)
		if err != nil {
			if ar.logger != nil {
				ar.logger.Warn("orders LISTEN acquire failed", zap.Error(err))
			}
			time.Sleep(backoff)
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		if _, err := conn.Exec(ctx, `listen orders_updates`); err != nil {
			conn.Release()
			if ar.logger != nil {
				ar.logger.Warn("orders LISTEN failed", zap.Error(err))
			}
			time.Sleep(backoff)
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		backoff = time.Second
		for {
			if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
				break
			}

			orders, fetchErr := ar.fetchActiveOrders(ctx)
			if fetchErr != nil {
				ar.broadcast(map[string]any{"type": "orders.refresh", "updatedAt": time.Now()})
				continue
			}
			ar.broadcast(map[string]any{"type": "orders.state", "data": orders})
		}

		conn.Release()
		time.Sleep(backoff)
		backoff = minDuration(backoff*2, 30*time.Second)
	}
}

// --------------------
// Public: a single order
// --------------------

type publicOrderRealtime struct {
	db     *pgxpool.Pool
	logger *zap.Logger

	started sync.Once
	mu      sync.RWMutex
	subs    map[string]map[*wsRealtimeClient]struct{}
}

func (pr *publicOrderRealtime) ensureStarted() {
	pr.started.Do(func() {
		go pr.listenLoop(context.Background())
	})
}

func (pr *publicOrderRealtime) subscribe(orderID string, client *wsRealtimeClient) (unsubscribe func()) {
	key := strings.TrimSpace(orderID)
	if key == "" {
		return func() {}
	}

	pr.mu.Lock()
	if pr.subs[key] == nil {
		pr.subs[key] = make(map[*wsRealtimeClient]struct{})
	}
	pr.subs[key][client] = struct{}{}
	pr.mu.Unlock()

	return func() {
		pr.mu.Lock()
		clients := pr.subs[key]
		delete(clients, client)
		if len(clients) == 0 {
			delete(pr.subs, key)
		}
		pr.mu.Unlock()
	}
}

func (pr *publicOrderRealtime) broadcast(orderID string, message any) {
	key := strings.TrimSpace(orderID)
	if key == "" {
		return
	}

	pr.mu.RLock()
	clientsMap := pr.subs[key]
	clients := make([]*wsRealtimeClient, 0, len(clientsMap))
	for c := range clientsMap {
		clients = append(clients, c)
	}
	pr.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(message); err != nil {
			_ = c.conn.Close()
			pr.mu.Lock()
			if current := pr.subs[key]; current != nil {
				delete(current, c)
				if len(current) == 0 {
					delete(pr.subs, key)
				}
			}
			pr.mu.Unlock()
		}
	}
}

func (pr *publicOrderRealtime) fetchOrder(ctx context.Context, orderID int64) (order.Order, bool) {
	query := `select ` + orderColumns + ` from orders where id = $1`
	o, err := scanOrderRow(pr.db.QueryRow(ctx, query, orderID))
	if err != nil {
		return order.Order{}, false
	}
	return o, true
}

func (pr *publicOrderRealtime) listenLoop(ctx context.Context) {
	backoff := time.Second
	for {
		conn, err := pr.db.Acquire(ctx)
		if err != nil {
			if pr.logger != nil {
				pr.logger.Warn("order LISTEN acquire failed", zap.Error(err))
			}
			time.Sleep(backoff)
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		if _, err := conn.Exec(ctx, `listen orders_updates`); err != nil {
			conn.Release()
			if pr.logger != nil {
				pr.logger.Warn("order LISTEN failed", zap.Error(err))
			}
			time.Sleep(backoff)
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		backoff = time.Second
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				break
			}
			key := strings.TrimSpace(n.Payload)
			if key == "" {
				continue
			}

			orderID, parseErr := strconv.ParseInt(key, 10, 64)
			if parseErr != nil {
				continue
			}

			o, found := pr.fetchOrder(ctx, orderID)
			if !found {
				// Gone: deleted, or folded into a merged order on completion.
				pr.broadcast(key, map[string]any{"type": "order.gone", "orderId": orderID})
				continue
			}
			pr.broadcast(key, map[string]any{"type": "order.state", "data": o})
		}

		conn.Release()
		time.Sleep(backoff)
		backoff = minDuration(backoff*2, 30*time.Second)
	}
}

// --------------------
// Admin: waiter calls
// --------------------

type waiterCallsRealtime struct {
	db     *pgxpool.Pool
	logger *zap.Logger

	started sync.Once
	mu      sync.RWMutex
	subs    map[*wsRealtimeClient]struct{}
}

func (wr *waiterCallsRealtime) ensureStarted() {
	wr.started.Do(func() {
		go wr.listenLoop(context.Background())
	})
}

func (wr *waiterCallsRealtime) subscribe(client *wsRealtimeClient) (unsubscribe func()) {
	wr.mu.Lock()
	wr.subs[client] = struct{}{}
	wr.mu.Unlock()

	return func() {
		wr.mu.Lock()
		delete(wr.subs, client)
		wr.mu.Unlock()
	}
}

func (wr *waiterCallsRealtime) broadcast(message any) {
	wr.mu.RLock()
	clients := make([]*wsRealtimeClient, 0, len(wr.subs))
	for c := range wr.subs {
		clients = append(clients, c)
	}
	wr.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(message); err != nil {
			_ = c.conn.Close()
			wr.mu.Lock()
			delete(wr.subs, c)
			wr.mu.Unlock()
		}
	}
}

type waiterCallState struct {
	ID          int64     `json:"id"`
	TableNumber int       `json:"tableNumber"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (wr *waiterCallsRealtime) fetchPendingCalls(ctx context.Context) ([]waiterCallState, error) {
	rows, err := wr.db.Query(ctx, `
		select id, table_number, created_at
		from waiter_calls
		where status = 'pending'
		order by created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	calls := make([]waiterCallState, 0)
	for rows.Next() {
		var call waiterCallState
		if err := rows.Scan(&call.ID, &call.TableNumber, &call.CreatedAt); err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	return calls, rows.Err()
}

func (wr *waiterCallsRealtime) listenLoop(ctx context.Context) {
	backoff := time.Second
	for {
		conn, err := wr.db.Acquire(ctx)
		if err != nil {
			if wr.logger != nil {
				wr.logger.Warn("waiter calls LISTEN acquire failed", zap.Error(err))
			}
			time.Sleep(backoff)
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		if _, err := conn.Exec(ctx, `listen waiter_calls_updates`); err != nil {
			conn.Release()
			if wr.logger != nil {
				wr.logger.Warn("waiter calls LISTEN failed", zap.Error(err))
			}
			time.Sleep(backoff)
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}

		backoff = time.Second
		for {
			if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
				break
			}

			calls, fetchErr := wr.fetchPendingCalls(ctx)
			if fetchErr != nil {
				wr.broadcast(map[string]any{"type": "waiter_calls.refresh"})
				continue
			}
			wr.broadcast(map[string]any{"type": "waiter_calls.state", "data": calls})
		}

		conn.Release()
		time.Sleep(backoff)
		backoff = minDuration(backoff*2, 30*time.Second)
	}
}

// --------------------
// HTTP entry points
// --------------------

func (s *Server) authorize(r *http.Request) bool {
	token := auth.ParseBearerToken(r.URL.Query().Get("token"))
	_, err := auth.VerifyAccessToken(token, s.Config.JWTSecret)
	return err == nil
}

func (s *Server) serveClient(ctx context.Context, conn *websocket.Conn, client *wsRealtimeClient) {
	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	heartbeat := s.Config.WSHeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.ping(); err != nil {
				return
			}
		}
	}
}

// AdminOrdersWS streams the set of active orders to the admin dashboard.
func (s *Server) AdminOrdersWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if !s.authorize(r) {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "unauthorized"})
		return
	}

	s.adminOrders.ensureStarted()
	ctx := r.Context()
	client := &wsRealtimeClient{conn: conn}
	unsubscribe := s.adminOrders.subscribe(client)
	defer unsubscribe()

	if orders, fetchErr := s.adminOrders.fetchActiveOrders(ctx); fetchErr == nil {
		_ = client.writeJSON(map[string]any{"type": "orders.state", "data": orders})
	} else {
		_ = client.writeJSON(map[string]any{"type": "orders.refresh", "updatedAt": time.Now()})
	}

	s.serveClient(ctx, conn, client)
}

// PublicOrderWS streams status changes for one order to the customer page.
func (s *Server) PublicOrderWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	key := strings.TrimSpace(r.URL.Query().Get("orderId"))
	orderID, parseErr := strconv.ParseInt(key, 10, 64)
	if parseErr != nil || orderID <= 0 {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "invalid request"})
		return
	}

	s.publicOrder.ensureStarted()
	ctx := r.Context()
	client := &wsRealtimeClient{conn: conn}
	unsubscribe := s.publicOrder.subscribe(key, client)
	defer unsubscribe()

	if o, found := s.publicOrder.fetchOrder(ctx, orderID); found {
		_ = client.writeJSON(map[string]any{"type": "order.state", "data": o})
	} else {
		_ = client.writeJSON(map[string]any{"type": "error", "message": "order not found"})
		return
	}

	s.serveClient(ctx, conn, client)
}

// AdminWaiterCallsWS streams the pending waiter calls to the admin dashboard.
func (s *Server) AdminWaiterCallsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if !s.authorize(r) {
		_ = conn.WriteJSON(map[string]any{"type": "error", "message": "unauthorized"})
		return
	}

	s.waiterCalls.ensureStarted()
	ctx := r.Context()
	client := &wsRealtimeClient{conn: conn}
	unsubscribe := s.waiterCalls.subscribe(client)
	defer unsubscribe()

	if calls, fetchErr := s.waiterCalls.fetchPendingCalls(ctx); fetchErr == nil {
		_ = client.writeJSON(map[string]any{"type": "waiter_calls.state", "data": calls})
	}

	s.serveClient(ctx, conn, client)
}

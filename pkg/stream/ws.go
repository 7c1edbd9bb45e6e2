// pkg/stream/ws.go
package stream

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vietvo371/Binane-test/pkg/backoff"
	"github.com/vietvo371/Binane-test/pkg/logger"
)

// wsConnector управляет соединением к WebSocket биржи с авто-reconnect.
type wsConnector struct {
	cfg         Config
	log         *logger.Logger
	subscribeID uint64 // для уникальных подписок
	closed      atomic.Bool
}

// NewConnector создаёт Connector.
// Логгер именуется как "exchange-ws" для удобного фильтра в логах.
func NewConnector(cfg Config, log *logger.Logger) (Connector, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &wsConnector{
		cfg: cfg,
		log: log.Named("exchange-ws"),
	}, nil
}

// Stream запускает подпроцесс чтения и возвращает канал RawFrame.
// Закрытие канала происходит при отмене ctx или после Close().
func (c *wsConnector) Stream(ctx context.Context) (<-chan RawFrame, error) {
	ch := make(chan RawFrame, c.cfg.BufferSize)
	go c.run(ctx, ch)
	return ch, nil
}

// Close останавливает все будущие reconnect-циклы.
func (c *wsConnector) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *wsConnector) run(ctx context.Context, ch chan<- RawFrame) {
	defer close(ch)

	for {
		// 1) Проверка отмены контекста и явного Close
		select {
		case <-ctx.Done():
			c.log.Sugar().Infow("ws: context cancelled, exiting")
			return
		default:
		}
		if c.closed.Load() {
			c.log.Sugar().Infow("ws: connector closed, exiting")
			return
		}

		// 2) Подключаемся с бэкоффом
		var conn *websocket.Conn
		err := backoff.Execute(ctx, c.cfg.Backoff, c.log, func(ctxTry context.Context) error {
			var dialErr error
			conn, _, dialErr = websocket.DefaultDialer.DialContext(ctxTry, c.cfg.URL, nil)
			return dialErr
		})
		if err != nil {
			c.log.Sugar().Errorw("ws: failed to connect after retries", "err", err)
			continue
		}
		c.log.Sugar().Infow("ws: connected", "url", c.cfg.URL)

		// 3) Контекст для ping-горутины
		connCtx, cancelPing := context.WithCancel(ctx)

		// 4) Настройка read-deadline и pong-обработчика
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		})

		// 5) Запуск ping-горутины с WriteDeadline и логированием ошибок
		go func(cConn *websocket.Conn) {
			ticker := time.NewTicker(c.cfg.ReadTimeout / 3)
			defer ticker.Stop()
			for {
				select {
				case <-connCtx.Done():
					return
				case <-ticker.C:
					_ = cConn.SetWriteDeadline(time.Now().Add(time.Second))
					if err := cConn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
						c.log.Sugar().Warnw("ws: ping failed", "err", err)
					}
				}
			}
		}(conn)

		// 6) Подписываемся на стримы с уникальным id
		id := atomic.AddUint64(&c.subscribeID, 1)
		req := map[string]interface{}{
			"method": "SUBSCRIBE",
			"params": c.cfg.Streams,
			"id":     id,
		}
		_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.SubscribeTimeout))
		if err := conn.WriteJSON(req); err != nil {
			c.log.Sugar().Errorw("ws: subscribe failed", "err", err, "id", id)
			conn.Close()
			cancelPing()
			continue
		}

		// 7) Чтение сообщений
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.log.Sugar().Warnw("ws: read error, reconnecting", "err", err)
				conn.Close()
				cancelPing()
				break
			}

			// Классифицируем кадр по полю "type"
			frameType := "unknown"
			var meta struct {
				Type string `json:"type"`
			}
			if uErr := json.Unmarshal(data, &meta); uErr == nil && meta.Type != "" {
				frameType = meta.Type
			}

			// Отправляем, если есть место в буфере
			select {
			case ch <- RawFrame{Data: data, Type: frameType}:
			default:
				c.log.Sugar().Warnw("ws: buffer full, dropping frame", "type", frameType)
			}
		}
	}
}

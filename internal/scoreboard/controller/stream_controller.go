package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"scoreboard/internal/common/broadcast"
	"scoreboard/internal/scoreboard/service"
	"scoreboard/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	streamBuffer = 256
	writeTimeout = 10 * time.Second
)

// StreamController upgrades to websocket and forwards a contest stream.
// Every stream replays its history before going live.
type StreamController struct {
	registry *service.Registry
	upgrader websocket.Upgrader
}

func NewStreamController(registry *service.Registry, allowOrigin func(origin string) bool) *StreamController {
	return &StreamController{
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return allowOrigin(r.Header.Get("Origin")) },
		},
	}
}

func (h *StreamController) Runs(c *gin.Context) {
	contest, ok := lookupContest(c, h.registry)
	if !ok {
		return
	}
	serveStream(c, h.upgrader, contest, "runs", contest.SubscribeRuns(streamBuffer))
}

func (h *StreamController) Timer(c *gin.Context) {
	contest, ok := lookupContest(c, h.registry)
	if !ok {
		return
	}
	serveStream(c, h.upgrader, contest, "timer", contest.SubscribeTimer(streamBuffer))
}

func serveStream[T any](c *gin.Context, upgrader websocket.Upgrader, contest *service.ContestService, stream string, sub *broadcast.Subscription[T]) {
	defer sub.Close()
	ctx := logger.WithContest(c.Request.Context(), contest.Name())

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Info(ctx, "websocket upgrade failed", zap.String("stream", stream), zap.Error(err))
		return
	}
	defer conn.Close()
	done := contest.Metrics().TrackSubscriber(contest.Name(), stream)
	defer done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// the client never sends; reading only detects the close
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		v, err := sub.Recv(ctx)
		if err != nil {
			if errors.Is(err, broadcast.ErrClosed) {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "contest closed"),
					time.Now().Add(writeTimeout))
			}
			break
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(v); err != nil {
			logger.Debug(ctx, "websocket write failed", zap.String("stream", stream), zap.Error(err))
			break
		}
	}
	if n := sub.Dropped(); n > 0 {
		contest.Metrics().AddDropped(contest.Name(), "slow_"+stream, int(n))
		logger.Warn(ctx, "slow subscriber lost messages", zap.String("stream", stream), zap.Uint64("dropped", n))
	}
}

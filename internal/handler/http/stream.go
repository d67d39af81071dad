package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Penlika/CoffeeShopApp/internal/feed"
	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
	"github.com/Penlika/CoffeeShopApp/pkg/httputil"
	"github.com/Penlika/CoffeeShopApp/pkg/logger"
)

// keepAliveInterval is how often an idle stream sends a comment line so
// proxies keep the connection open.
var keepAliveInterval = 15 * time.Second

// Subscriber opens live feed subscriptions. *feed.Hub satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (*feed.Subscription, error)
}

// StreamHandler serves live feeds as Server-Sent Events.
type StreamHandler struct {
	feeds  Subscriber
	logger *slog.Logger
}

// NewStreamHandler creates a new stream HTTP handler.
func NewStreamHandler(feeds Subscriber, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		feeds:  feeds,
		logger: logger,
	}
}

// Comments handles GET /api/v1/items/{kind}/{id}/comments/stream
func (h *StreamHandler) Comments(w http.ResponseWriter, r *http.Request) {
	ref := itemRefFrom(r)
	if !ref.Kind.Valid() || ref.ID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("unknown item "+ref.String()), h.logger)
		return
	}
	h.stream(w, r, feed.CommentsChannel(ref))
}

// Cart handles GET /api/v1/cart/stream
func (h *StreamHandler) Cart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.Anonymous() {
		httputil.WriteError(w, r, apperrors.Unauthorized("sign in to continue"), h.logger)
		return
	}
	h.stream(w, r, feed.CartChannel(sess.UserID))
}

func (h *StreamHandler) stream(w http.ResponseWriter, r *http.Request, channel string) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	sub, err := h.feeds.Subscribe(ctx, channel)
	if err != nil {
		httputil.WriteError(w, r, apperrors.StoreUnavailable(err), h.logger)
		return
	}
	defer func() { _ = sub.Close() }()

	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprint(w, "retry: 3000\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		log.WarnContext(ctx, "response does not support streaming", slog.String("error", err.Error()))
		return
	}
	log.DebugContext(ctx, "feed stream opened", slog.String("channel", channel))

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case u, ok := <-sub.C:
			if !ok {
				return
			}
			_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", u.Type, u.Data)
		case <-ticker.C:
			_, err = fmt.Fprint(w, ": ping\n\n")
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			log.DebugContext(ctx, "feed stream closed", slog.String("channel", channel), slog.String("error", err.Error()))
			return
		}
	}
}

var _ Subscriber = (*feed.Hub)(nil)

package intake

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docent/pkg/handlers"
	"github.com/JaimeStill/docent/pkg/routes"
)

// ErrInvalidEvent is returned for event bodies that cannot be decoded.
var ErrInvalidEvent = errors.New("invalid storage event")

// Handler receives storage events over HTTP.
type Handler struct {
	ctrl         *Controller
	maxEventSize int64
	logger       *slog.Logger
}

// NewHandler creates a Handler that rejects bodies larger than maxEventSize.
func NewHandler(ctrl *Controller, maxEventSize int64, logger *slog.Logger) *Handler {
	return &Handler{
		ctrl:         ctrl,
		maxEventSize: maxEventSize,
		logger:       logger.With("handler", "intake"),
	}
}

// Routes returns the route group definition for event endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/events",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/storage", Handler: h.Storage},
		},
	}
}

// pushEnvelope is the body of a push subscription delivery.
type pushEnvelope struct {
	Message *struct {
		Data       string            `json:"data"`
		Attributes map[string]string `json:"attributes"`
		MessageID  string            `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// Storage handles a raw storage event or a push envelope wrapping one. Every
// decoded event is acknowledged with 200 so the source does not redeliver.
func (h *Handler) Storage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxEventSize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrInvalidEvent)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidEvent)
		return
	}

	ev, err := DecodeEvent(body)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.ctrl.HandleUpload(r.Context(), ev))
}

// DecodeEvent parses a raw event or a push envelope whose message data is a
// base64-encoded event. Envelope attributes fill a missing bucket or name.
func DecodeEvent(body []byte) (Event, error) {
	var env pushEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, ErrInvalidEvent
	}

	if env.Message == nil {
		var ev Event
		if err := json.Unmarshal(body, &ev); err != nil {
			return Event{}, ErrInvalidEvent
		}
		return ev, nil
	}

	var ev Event
	if env.Message.Data != "" {
		data, err := base64.StdEncoding.DecodeString(env.Message.Data)
		if err != nil {
			return Event{}, ErrInvalidEvent
		}
		if err := json.Unmarshal(data, &ev); err != nil {
			return Event{}, ErrInvalidEvent
		}
	}

	if ev.Bucket == "" {
		ev.Bucket = env.Message.Attributes["bucketId"]
	}
	if ev.Name == "" {
		ev.Name = env.Message.Attributes["objectId"]
	}
	return ev, nil
}

package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/darkkD11/CardArena/internal/api/apierr"
	"github.com/darkkD11/CardArena/internal/api/response"
	"github.com/darkkD11/CardArena/internal/protocol"
)

// QR code edge lengths in pixels
const (
	QRSize    = 320
	QRMinSize = 128
	QRMaxSize = 1024
)

// RoomHandler serves read-only room views
type RoomHandler struct {
	engine    Engine
	publicURL string
}

// NewRoomHandler creates a new RoomHandler. publicURL is the base address
// players open to join; when empty it is derived from each request.
func NewRoomHandler(engine Engine, publicURL string) *RoomHandler {
	return &RoomHandler{
		engine:    engine,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// List handles GET /rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.Lobby(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	rooms := list.Rooms
	if rooms == nil {
		rooms = []protocol.Room{}
	}
	response.JSON(w, http.StatusOK, response.Rooms{Rooms: rooms})
}

// Get handles GET /rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.engine.Room(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Room{Room: room, JoinURL: h.joinURL(r, room.Code)})
}

// QR handles GET /rooms/{code}/qr[?size=N] with a PNG encoding the room's join URL
func (h *RoomHandler) QR(w http.ResponseWriter, r *http.Request) {
	size := QRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < QRMinSize || n > QRMaxSize {
			apierr.WriteError(w, apierr.NewInvalidRequestError(
				fmt.Sprintf("size must be an integer between %d and %d", QRMinSize, QRMaxSize)))
			return
		}
		size = n
	}

	room, err := h.engine.Room(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	png, err := qrcode.Encode(h.joinURL(r, room.Code), qrcode.Medium, size)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.PNG(w, png)
}

func (h *RoomHandler) joinURL(r *http.Request, code string) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?room=" + code
}

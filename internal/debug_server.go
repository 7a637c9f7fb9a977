// Package internal provides the operator-facing debug surface. It is not
// the client transport: clients connect through an external adapter that
// consumes the services and the broker.
package internal

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"flyte/domain"
	"flyte/services"
)

// Core is the slice of the wired application the debug server reads from.
type Core struct {
	Journeys services.IJourneyService
	Messages services.IMessageService
	Rooms    services.IRoomService
}

// StartDebugServer serves read-only inspection endpoints on addr:
//
//	GET /health
//	GET /journeys?user={uuid}
//	GET /rooms?user={uuid}     rooms + messages, expired rooms skipped
//	GET /messages?room={uuid}  newest first
func StartDebugServer(log *slog.Logger, core Core, addr string) {
	mux := newMux(log, core)

	go func() {
		log.Info("debug server listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("debug server stopped", "err", err)
		}
	}()
}

func newMux(log *slog.Logger, core Core) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/journeys", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := queryID(w, r, "user")
		if !ok {
			return
		}
		journeys, err := core.Journeys.GetJourneysByUser(userID)
		if journeys == nil {
			journeys = []domain.Journey{}
		}
		respond(w, log, journeys, err)
	})

	mux.HandleFunc("/rooms", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := queryID(w, r, "user")
		if !ok {
			return
		}
		rooms, err := core.Rooms.GetRoomsAndMessagesByUser(userID)
		if rooms == nil {
			rooms = []services.RoomWithMessages{}
		}
		respond(w, log, rooms, err)
	})

	mux.HandleFunc("/messages", func(w http.ResponseWriter, r *http.Request) {
		roomID, ok := queryID(w, r, "room")
		if !ok {
			return
		}
		messages, err := core.Messages.GetMessagesByRoom(roomID)
		if messages == nil {
			messages = []domain.Message{}
		}
		respond(w, log, messages, err)
	})

	return mux
}

func queryID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.URL.Query().Get(param))
	if err != nil {
		http.Error(w, "invalid or missing "+param+" id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func respond(w http.ResponseWriter, log *slog.Logger, payload any, err error) {
	if err != nil {
		log.Warn("debug query failed", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, payload)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(payload)
}

package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"ruinfall.game/internal/persistence/indexdb"
	"ruinfall.game/internal/sim/battle"
	"ruinfall.game/internal/sim/units"
)

type gameStatus struct {
	GameID  string `json:"game_id"`
	Turn    uint16 `json:"turn"`
	Side    string `json:"side"`
	UnitsA  int    `json:"units_a"`
	UnitsB  int    `json:"units_b"`
	Handled uint64 `json:"handled"`
	Over    bool   `json:"over"`
}

// status is the part of the game the HTTP handlers may read. The map itself
// belongs to the server goroutine.
type status struct {
	mu  sync.Mutex
	cur gameStatus
}

// update copies m's summary; handled counts one more applied message.
func (s *status) update(m *battle.Map, handled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.GameID = m.GameID
	s.cur.Turn = m.Turn
	s.cur.Side = m.Side.String()
	s.cur.UnitsA = m.Units.Count(units.PlayerA)
	s.cur.UnitsB = m.Units.Count(units.PlayerB)
	s.cur.Over = m.Over()
	if handled {
		s.cur.Handled++
	}
}

func (s *status) get() gameStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

func metricsHandler(st *status, idx *indexdb.Index) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		s := st.get()

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP ruinfall_turn Current turn.\n")
		fmt.Fprintf(rw, "# TYPE ruinfall_turn gauge\n")
		fmt.Fprintf(rw, "ruinfall_turn{game=%q} %d\n", s.GameID, s.Turn)

		fmt.Fprintf(rw, "# HELP ruinfall_units Living units per side.\n")
		fmt.Fprintf(rw, "# TYPE ruinfall_units gauge\n")
		fmt.Fprintf(rw, "ruinfall_units{game=%q,side=%q} %d\n", s.GameID, units.PlayerA.String(), s.UnitsA)
		fmt.Fprintf(rw, "ruinfall_units{game=%q,side=%q} %d\n", s.GameID, units.PlayerB.String(), s.UnitsB)

		fmt.Fprintf(rw, "# HELP ruinfall_messages_handled_total Client messages applied by the server.\n")
		fmt.Fprintf(rw, "# TYPE ruinfall_messages_handled_total counter\n")
		fmt.Fprintf(rw, "ruinfall_messages_handled_total{game=%q} %d\n", s.GameID, s.Handled)

		if idx == nil {
			return
		}
		is := idx.Stats()
		fmt.Fprintf(rw, "# HELP ruinfall_index_queue_depth Index writer backlog.\n")
		fmt.Fprintf(rw, "# TYPE ruinfall_index_queue_depth gauge\n")
		fmt.Fprintf(rw, "ruinfall_index_queue_depth %d\n", is.QueueDepth)
		fmt.Fprintf(rw, "# HELP ruinfall_index_dropped_total Index rows dropped because the queue was full.\n")
		fmt.Fprintf(rw, "# TYPE ruinfall_index_dropped_total counter\n")
		fmt.Fprintf(rw, "ruinfall_index_dropped_total{kind=%q} %d\n", "game", is.DropGame)
		fmt.Fprintf(rw, "ruinfall_index_dropped_total{kind=%q} %d\n", "command", is.DropCommand)
		fmt.Fprintf(rw, "ruinfall_index_dropped_total{kind=%q} %d\n", "save", is.DropSave)
		fmt.Fprintf(rw, "ruinfall_index_dropped_total{kind=%q} %d\n", "result", is.DropResult)
	}
}

// stateHandler is local-only.
func stateHandler(st *status) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		s := st.get()
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(&s)
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

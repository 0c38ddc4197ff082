// eTAO - Encrypted TAO Graph Query Engine
// Copyright (C) 2025 eTAO-project
//
// This file is part of eTAO.
//
// eTAO is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// eTAO is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with eTAO. If not, see <https://www.gnu.org/licenses/>.

package tao

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/etao-project/etao/internal/logger"
)

const (
	wsReadTimeout  = 300 * time.Second
	wsWriteTimeout = 30 * time.Second
)

// wsHandler upgrades the connection and runs an interactive query stream:
// each text frame is a query script, each reply frame the JSON response
// envelope.
func (s *Server) wsHandler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, fmt.Sprintf("websocket upgrade failed: %v", err), http.StatusBadRequest)
			return
		}
		defer func() { _ = conn.Close() }()

		log := s.log.WithFields(logger.String("remote", conn.RemoteAddr().String()))
		log.Info("websocket session opened")

		for {
			if err := conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
				return
			}
			msgType, script, err := conn.ReadMessage()
			if err != nil {
				log.Debug("websocket session closed", logger.Error(err))
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}

			resp, err := s.Pipeline(r.Context(), string(script))

			if werr := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); werr != nil {
				return
			}
			if err != nil {
				if werr := conn.WriteJSON(map[string]string{"error": err.Error()}); werr != nil {
					return
				}
				continue
			}
			if werr := conn.WriteJSON(resp); werr != nil {
				log.Debug("websocket write failed", logger.Error(werr))
				return
			}
		}
	})
}

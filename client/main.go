// Smoke-test client: connects to a running server, identifies against a
// session, and prints every event it receives. Usage:
//
//	go run ./client -code ABCDEF -player 1
//	go run ./client -code ABCDEF -gm
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type identifyPayload struct {
	SessionCode string `json:"session_code"`
	PlayerID    int64  `json:"player_id,omitempty"`
	IsGM        bool   `json:"is_gm,omitempty"`
}

func main() {
	host := flag.String("host", "localhost:8080", "server host:port")
	code := flag.String("code", "", "session join code")
	playerID := flag.Int64("player", 0, "player id issued at join")
	isGM := flag.Bool("gm", false, "connect as the game master screen")
	flag.Parse()

	if *code == "" {
		log.Fatal("a session code is required (-code)")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			var event struct {
				Type string          `json:"type"`
				Data json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal(data, &event); err != nil {
				log.Printf("<- RECV (unparsed): %s", string(data))
				continue
			}
			log.Printf("<- RECV %s: %s", event.Type, string(event.Data))
		}
	}()

	payload, _ := json.Marshal(identifyPayload{
		SessionCode: *code,
		PlayerID:    *playerID,
		IsGM:        *isGM,
	})
	identify, _ := json.Marshal(message{Type: "identify", Payload: payload})
	if err := c.WriteMessage(websocket.TextMessage, identify); err != nil {
		log.Fatalf("Identify failed: %v", err)
	}
	log.Println("Identified; waiting for events. Ctrl-C to quit.")

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupted, closing connection.")
			c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

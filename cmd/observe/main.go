// observe attaches to a running match as a read-only spectator and prints
// every notification the server pushes for it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
)

var (
	addr      = flag.String("addr", "localhost:8080", "server address")
	sessionID = flag.String("session", "", "session id to observe")
)

func main() {
	flag.Parse()
	if *sessionID == "" {
		fmt.Fprintln(os.Stderr, "usage: observe -session <id> [-addr host:port]")
		os.Exit(2)
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     *addr,
		Path:     "/ws",
		RawQuery: "session=" + url.QueryEscape(*sessionID),
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", u.String(), err)
		os.Exit(1)
	}
	defer conn.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, readErr := conn.ReadMessage()
			if readErr != nil {
				fmt.Fprintf(os.Stderr, "Connection closed: %v\n", readErr)
				return
			}
			var msg struct {
				Event   string          `json:"event"`
				Payload json.RawMessage `json:"payload"`
			}
			if jsonErr := json.Unmarshal(raw, &msg); jsonErr != nil {
				fmt.Printf("?? %s\n", raw)
				continue
			}
			if len(msg.Payload) > 0 {
				fmt.Printf("%-18s %s\n", msg.Event, msg.Payload)
			} else {
				fmt.Println(msg.Event)
			}
		}
	}()

	select {
	case <-sigChan:
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-done:
	}
}

package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/sketchparty/models"
	"github.com/wfunc/sketchparty/network"
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	packet, err := network.EncodePacket(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

// command turns one input line into a packet. The current room is used when none is given.
func command(line, current string) (uint16, any, bool) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	switch verb {
	case "create":
		return network.MsgTypeCreateRoom, models.CreateRoomRequest{Name: rest, Capacity: 8, ScoreTarget: 50}, true
	case "join":
		return network.MsgTypeJoinRoom, models.RoomIntent{RoomID: rest}, true
	case "leave":
		return network.MsgTypeLeaveRoom, models.RoomIntent{RoomID: current}, true
	case "start":
		return network.MsgTypeStartGame, models.RoomIntent{RoomID: current}, true
	case "pause":
		return network.MsgTypePauseGame, models.RoomIntent{RoomID: current}, true
	case "hint":
		level, err := strconv.Atoi(rest)
		if err != nil {
			return 0, nil, false
		}
		return network.MsgTypeRequestHint, models.HintIntent{RoomID: current, Level: level}, true
	case "":
		return 0, nil, false
	default:
		// anything else is a guess
		return network.MsgTypeSubmitGuess, models.GuessIntent{RoomID: current, Text: strings.TrimSpace(line)}, true
	}
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	username := flag.String("username", "player", "username")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: url.Values{"username": {*username}}.Encode()}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})
	rooms := make(chan string, 1)

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			packet, err := network.DecodePacket(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			if packet.MsgID == network.MsgTypeRoomCreated || packet.MsgID == network.MsgTypeMembershipChanged {
				var r struct {
					ID     string `json:"id"`
					RoomID string `json:"room_id"`
				}
				if json.Unmarshal(packet.Data, &r) == nil {
					id := r.ID
					if id == "" {
						id = r.RoomID
					}
					select {
					case rooms <- id:
					default:
					}
				}
			}
			name, _ := network.EventForMsgID(packet.MsgID)
			log.Printf("<- RECV %d %s: %s", packet.MsgID, name, string(packet.Data))
		}
	}()

	lines := make(chan string)
	go func() {
		reader := bufio.NewScanner(os.Stdin)
		for reader.Scan() {
			lines <- reader.Text()
		}
	}()

	log.Println("Commands: create <name> | join <id> | leave | start | pause | hint <1-3> | anything else guesses")

	current := ""
	for {
		select {
		case <-done:
			return
		case id := <-rooms:
			current = id
		case line := <-lines:
			msgID, intent, ok := command(line, current)
			if !ok {
				continue
			}
			if err := send(c, msgID, intent); err != nil {
				log.Println("Write error:", err)
				return
			}
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}

// Command codedecho runs a Coded-handshake echo server and client
// exchanging a single fixed-size Chat message. Grounded
// on the small single-file demo mains in betamos-Go-Websocket/example.go
// and pepnova-9-go-websocket-server/server.go.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/arcway-io/slotconn/client"
	"github.com/arcway-io/slotconn/codec"
	"github.com/arcway-io/slotconn/conn"
	"github.com/arcway-io/slotconn/message"
	"github.com/arcway-io/slotconn/server"
)

// sharedCode is the fixed 16-byte code both sides must present.
var sharedCode = [16]byte{0x0F, 0x00, 0x0D, 0xBE, 0xEF, 0x0F, 0x00, 0x0D, 0xBE, 0xEF, 0x0F, 0x00, 0x0D, 0xBE, 0xEF, 0x0F}

func newCodedCodec() codec.Codec[*[16]byte, struct{}] {
	return &codec.Coded{}
}

func main() {
	mode := flag.String("mode", "server", "server or client")
	addr := flag.String("addr", "0.0.0.0:8081", "listen or dial address")
	flag.Parse()

	if *mode == "server" {
		runServer(*addr)
		return
	}
	runClient(*addr)
}

func runServer(addr string) {
	cfg := server.DefaultConfig()
	cfg.ListenAddr = addr
	s := server.New[*[16]byte, struct{}, message.Chat](cfg, newCodedCodec, message.ChatCodec{})
	if err := s.Listen(&sharedCode); err != nil {
		log.Fatalf("listen: %v", err)
	}
	log.Printf("codedecho server listening on %s", addr)

	onOpen := func(h server.Handle, _ struct{}) {
		log.Printf("connection %d open", h)
	}
	onMessage := func(h server.Handle, msg message.Chat) {
		log.Printf("connection %d: %q", h, msg.Text)
		if err := s.Send(h, msg); err != nil {
			log.Printf("echo failed for %d: %v", h, err)
		}
	}
	onClose := func(h server.Handle) {
		log.Printf("connection %d closed", h)
	}

	for {
		if err := s.Poll(onOpen, onMessage, onClose); err != nil {
			log.Fatalf("poll: %v", err)
		}
	}
}

func runClient(addr string) {
	c := client.New[*[16]byte, struct{}, message.Chat](client.DefaultConfig(), newCodedCodec, message.ChatCodec{})
	if err := c.Connect(addr, &sharedCode); err != nil {
		log.Fatalf("connect: %v", err)
	}

	sent := false
	for {
		err := c.Poll(
			func(struct{}) {
				log.Printf("handshake complete")
			},
			func(msg message.Chat) {
				log.Printf("echo: %q", msg.Text)
			},
			func() {
				log.Printf("connection closed")
			},
		)
		if err != nil {
			log.Fatalf("poll: %v", err)
		}
		if !sent && c.State() == conn.StateOpen {
			if err := c.Send(message.Chat{Text: "Hello from the client!"}); err != nil {
				log.Fatalf("send: %v", err)
			}
			sent = true
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Command aechat runs an AE mutual-authentication handshake (X25519 +
// Ed25519 + Blake2b + XChaCha20-Poly1305) followed by an encrypted Chat
// exchange. Grounded on the same small demo-main shape as cmd/codedecho.
package main

import (
	"crypto/ed25519"
	"flag"
	"log"
	"time"

	"github.com/arcway-io/slotconn/client"
	"github.com/arcway-io/slotconn/codec"
	"github.com/arcway-io/slotconn/conn"
	"github.com/arcway-io/slotconn/message"
	"github.com/arcway-io/slotconn/server"
)

func newAECodec() codec.Codec[ed25519.PrivateKey, [32]byte] {
	return &codec.AE{}
}

func main() {
	mode := flag.String("mode", "server", "server or client")
	addr := flag.String("addr", "0.0.0.0:8082", "listen or dial address")
	flag.Parse()

	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		log.Fatalf("generate identity: %v", err)
	}

	if *mode == "server" {
		runServer(*addr, priv)
		return
	}
	runClient(*addr, priv)
}

func runServer(addr string, identity ed25519.PrivateKey) {
	cfg := server.DefaultConfig()
	cfg.ListenAddr = addr
	s := server.New[ed25519.PrivateKey, [32]byte, message.Chat](cfg, newAECodec, message.ChatCodec{})
	if err := s.Listen(identity); err != nil {
		log.Fatalf("listen: %v", err)
	}
	log.Printf("aechat server listening on %s", addr)

	onOpen := func(h server.Handle, peerVerifyKey [32]byte) {
		log.Printf("connection %d authenticated, peer verify key %x", h, peerVerifyKey)
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

func runClient(addr string, identity ed25519.PrivateKey) {
	c := client.New[ed25519.PrivateKey, [32]byte, message.Chat](client.DefaultConfig(), newAECodec, message.ChatCodec{})
	if err := c.Connect(addr, identity); err != nil {
		log.Fatalf("connect: %v", err)
	}

	sent := false
	for {
		err := c.Poll(
			func(peerVerifyKey [32]byte) {
				log.Printf("handshake complete, peer verify key %x", peerVerifyKey)
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

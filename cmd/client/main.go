package main

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/crypto/nacl/box"

	"github.com/RuuizOr/CiberseguridadEquipo2/infrastructure/ws"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:5555/ws"`
}

// client is one interactive chat peer. Messages sent with /secret are
// sealed with nacl/box against peer keys announced by the server; the
// server only ever sees the ciphertext.
type client struct {
	conn    *websocket.Conn
	priv    *[32]byte
	pub     *[32]byte
	mu      sync.Mutex
	peerKey map[string]*[32]byte
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	pub, priv, err := box.GenerateKey(crand.Reader)
	if err != nil {
		return exitRuntime, fmt.Errorf("keypair generation failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer func() { _ = conn.Close() }()

	c := &client{conn: conn, priv: priv, pub: pub, peerKey: make(map[string]*[32]byte)}
	stdin := bufio.NewScanner(os.Stdin)

	name := prompt(stdin, "Your chat name: ")
	if err := c.send(ws.TypeRegister, ws.RegisterRequest{
		Name:      name,
		PublicKey: base64.StdEncoding.EncodeToString(pub[:]),
	}); err != nil {
		return exitRuntime, err
	}
	if err := c.send(ws.TypeChooseGroup, ws.ChooseGroupRequest{
		Instruction: chooseGroupInstruction(stdin),
	}); err != nil {
		return exitRuntime, err
	}

	go c.receive()

	color.Cyan.Println("\nConnected. Commands:")
	color.Cyan.Println("  /create-group|Name    create a group (you get the key)")
	color.Cyan.Println("  /join-group|KEY       join an existing group")
	color.Cyan.Println("  /leave-group          back to the global chat")
	color.Cyan.Println("  /list-groups          list active groups")
	color.Cyan.Println("  /recipients           who can receive encrypted messages")
	color.Cyan.Println("  /secret|Name|text     send text end-to-end encrypted")
	color.Cyan.Println("  exit                  quit")

	for stdin.Scan() {
		line := strings.TrimSpace(stdin.Text())
		switch {
		case line == "":
		case strings.EqualFold(line, "exit"):
			return exitOK, nil
		case line == "/recipients":
			if err := c.send(ws.TypeGetRecipients, nil); err != nil {
				return exitRuntime, err
			}
		case strings.HasPrefix(line, "/secret|"):
			c.sendSecret(line)
		default:
			if err := c.send(ws.TypeText, ws.TextRequest{Content: line}); err != nil {
				return exitRuntime, err
			}
		}
	}
	return exitOK, nil
}

func prompt(stdin *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !stdin.Scan() {
		return ""
	}
	return strings.TrimSpace(stdin.Text())
}

// chooseGroupInstruction mirrors the connect-time menu of the original
// client: global chat, create a group, or join one by key.
func chooseGroupInstruction(stdin *bufio.Scanner) string {
	fmt.Println("\nGroup options:")
	fmt.Println("  1) Stay in the global chat")
	fmt.Println("  2) Create a group (you will receive a key)")
	fmt.Println("  3) Join a group by key")
	switch prompt(stdin, "Pick 1, 2 or 3: ") {
	case "2":
		return "create-group|" + prompt(stdin, "Name of the new group: ")
	case "3":
		return "join-group|" + strings.ToUpper(prompt(stdin, "Group key: "))
	default:
		return "none"
	}
}

func (c *client) send(envType string, payload any) error {
	env := ws.Envelope{Type: envType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		env.Data = data
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// sendSecret seals "/secret|Name|text" for one recipient. The plaintext
// never leaves this process.
func (c *client) sendSecret(line string) {
	parts := strings.SplitN(line, "|", 3)
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		color.Red.Println("Usage: /secret|Name|text")
		return
	}
	recipient, text := parts[1], parts[2]

	c.mu.Lock()
	peer, ok := c.peerKey[recipient]
	c.mu.Unlock()
	if !ok {
		color.Red.Printf("No public key known for %s (try /recipients)\n", recipient)
		return
	}

	var nonce [24]byte
	if _, err := crand.Read(nonce[:]); err != nil {
		color.Red.Printf("Nonce generation failed: %v\n", err)
		return
	}
	sealed := box.Seal(nonce[:], []byte(text), &nonce, peer, c.priv)
	ciphertext := base64.StdEncoding.EncodeToString(sealed)

	if err := c.send(ws.TypeEncrypted, ws.EncryptedRequest{
		Payload: map[string]string{recipient: ciphertext},
	}); err != nil {
		color.Red.Printf("Send failed: %v\n", err)
	}
}

// receive prints server events until the socket closes.
func (c *client) receive() {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			color.Red.Println("Connection closed by the server.")
			os.Exit(exitOK)
		}

		var env ws.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}

		switch env.Type {
		case ws.TypeNotice:
			var notice ws.NoticePayload
			if err := json.Unmarshal(env.Data, &notice); err != nil {
				continue
			}
			if notice.Encrypted {
				c.printEncrypted(notice)
			} else {
				color.Green.Println(notice.Text)
			}
		case ws.TypePeerKey:
			var peer ws.PeerKeyPayload
			if err := json.Unmarshal(env.Data, &peer); err != nil {
				continue
			}
			c.storePeerKey(peer)
		case ws.TypeRecipients:
			var recipients ws.RecipientsPayload
			if err := json.Unmarshal(env.Data, &recipients); err != nil {
				continue
			}
			c.printRecipients(recipients.Users)
		}
	}
}

func (c *client) storePeerKey(peer ws.PeerKeyPayload) {
	raw, err := base64.StdEncoding.DecodeString(peer.PublicKey)
	if err != nil || len(raw) != 32 {
		return
	}
	key := new([32]byte)
	copy(key[:], raw)

	c.mu.Lock()
	c.peerKey[peer.User] = key
	c.mu.Unlock()
	color.Yellow.Printf("Public key received for %s\n", peer.User)
}

func (c *client) printEncrypted(notice ws.NoticePayload) {
	c.mu.Lock()
	peer, ok := c.peerKey[notice.Sender]
	c.mu.Unlock()
	if !ok {
		color.Red.Printf("Encrypted message from %s but no key known\n", notice.Sender)
		return
	}

	sealed, err := base64.StdEncoding.DecodeString(notice.Message)
	if err != nil || len(sealed) < 24 {
		color.Red.Printf("Undecodable ciphertext from %s\n", notice.Sender)
		return
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := box.Open(nil, sealed[24:], &nonce, peer, c.priv)
	if !ok {
		color.Red.Printf("Could not decrypt message from %s\n", notice.Sender)
		return
	}
	color.Magenta.Printf("%s (encrypted): %s\n", notice.Sender, string(plain))
}

func (c *client) printRecipients(users []string) {
	if len(users) == 0 {
		color.Yellow.Println("No recipients available.")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Recipient"})
	for _, user := range users {
		table.Append([]string{user})
	}
	table.Render()
}

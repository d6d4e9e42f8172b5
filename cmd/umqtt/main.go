package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alfrunes/umqtt/client"
	"github.com/alfrunes/umqtt/internal/config"
	"github.com/alfrunes/umqtt/mqtt"
	"github.com/alfrunes/umqtt/packets"
	log "github.com/sirupsen/logrus"
)

const usage = `Usage: umqtt [-c config.yaml] <command> [arguments]

Commands:
  build connect|publish|subscribe|unsubscribe|pingreq|disconnect [flags]
        Build a packet and print it as hex.
  decode [-stream] [hex ...]
        Decode packets given as hex arguments, or a raw packet stream read
        from stdin, and print the resulting events.
`

func main() {
	cnfFlag := flag.String("c", "", "Path of config file.")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*cnfFlag)
	if err != nil {
		log.Fatal(err)
	}
	logFile, err := cfg.Log.Apply(log.StandardLogger())
	if err != nil {
		log.Fatal(err)
	}
	defer logFile.Close()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	switch args[0] {
	case "build":
		err = runBuild(cfg, args[1:], os.Stdout)
	case "decode":
		err = runDecode(args[1:], os.Stdin, os.Stdout)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error(err)
		logFile.Close()
		os.Exit(1)
	}
}

func runBuild(cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("build: missing packet type")
	}
	kind := strings.ToLower(args[0])
	fs := flag.NewFlagSet("build "+kind, flag.ContinueOnError)

	clientID := fs.String("id", cfg.Connect.ClientID, "Client identifier.")
	keepAlive := fs.Duration("keepalive",
		time.Duration(cfg.Connect.KeepAlive)*time.Second, "Keep alive interval.")
	clean := fs.Bool("clean", cfg.Connect.CleanSession, "Clean session flag.")
	username := fs.String("user", cfg.Connect.Username, "User name.")
	password := fs.String("pass", cfg.Connect.Password, "Password.")
	willTopic := fs.String("will-topic", "", "Will topic.")
	willMsg := fs.String("will-message", "", "Will message.")
	willRetain := fs.Bool("will-retain", false, "Retain the will message.")

	topic := fs.String("topic", "", "Topic name, or comma separated filters.")
	qos := fs.Uint("qos", 0, "QoS level.")
	message := fs.String("message", "", "Publish payload.")
	retain := fs.Bool("retain", false, "Retain flag.")
	dup := fs.Bool("dup", false, "Duplicate flag.")
	packetID := fs.Uint("packet-id", 0,
		"Packet identifier counter value before building. The counter is "+
			"advanced by building throwaway packets, up to 65535 of them.")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *packetID > 0xFFFF {
		return fmt.Errorf("%w: packet-id out of range", mqtt.ErrInvalidParameter)
	}
	if *qos > 0xFF {
		return fmt.Errorf("%w: qos out of range", mqtt.ErrInvalidParameter)
	}

	session := client.NewSession(nil)
	// Advance the counter so the next id is packetID+1.
	if err := skipPacketIDs(session, uint16(*packetID)); err != nil {
		return err
	}

	var (
		pkt   packets.Packet
		build func([]byte) (int, error)
	)
	switch kind {
	case "connect":
		opts := client.NewConnectOptions().
			SetCleanSession(*clean).
			SetKeepAlive(*keepAlive)
		if *clientID != "" {
			opts.SetClientID(*clientID)
		}
		if *username != "" {
			opts.SetUsername(*username)
		}
		if *password != "" {
			opts.SetPassword(*password)
		}
		if *willTopic != "" || *willMsg != "" {
			opts.SetWill(mqtt.NewTopic(*willTopic, mqtt.QoS(*qos)),
				[]byte(*willMsg), *willRetain)
		}
		connect, err := client.NewConnectPacket(opts)
		if err != nil {
			return err
		}
		pkt = connect
		build = func(b []byte) (int, error) { return session.Connect(b, connect) }

	case "publish":
		pub := client.NewPublishPacket(
			mqtt.NewTopic(*topic, mqtt.QoS(*qos)),
			[]byte(*message),
			client.NewPublishOptions().SetRetain(*retain).SetDuplicate(*dup),
		)
		pkt = pub
		build = func(b []byte) (int, error) { return session.Publish(b, pub) }

	case "subscribe":
		sub := &packets.Subscribe{}
		for _, filter := range splitTopics(*topic) {
			sub.Topics = append(sub.Topics,
				mqtt.NewTopic(filter, mqtt.QoS(*qos)))
		}
		pkt = sub
		build = func(b []byte) (int, error) { return session.Subscribe(b, sub) }

	case "unsubscribe":
		unsub := &packets.Unsubscribe{}
		for _, filter := range splitTopics(*topic) {
			unsub.Topics = append(unsub.Topics, []byte(filter))
		}
		pkt = unsub
		build = func(b []byte) (int, error) { return session.Unsubscribe(b, unsub) }

	case "pingreq":
		pkt = &packets.PingReq{}
		build = client.PingReq

	case "disconnect":
		pkt = &packets.Disconnect{}
		build = client.Disconnect

	default:
		return fmt.Errorf("build: unknown packet type %q", kind)
	}

	size, err := pkt.Size()
	if err != nil {
		return err
	}
	buf := make([]byte, size)
	n, err := build(buf)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hex.EncodeToString(buf[:n]))
	return err
}

// skipPacketIDs consumes packet identifiers until the session counter reads
// n. Session exposes no setter, so ids are drawn by building QoS 1
// publishes into a scratch buffer.
func skipPacketIDs(s *client.Session, n uint16) error {
	var buf [8]byte
	pub := client.NewPublishPacket(mqtt.NewTopic("-", mqtt.QoS1), nil)
	for s.PacketID() != n {
		if _, err := s.Publish(buf[:], pub); err != nil {
			return fmt.Errorf("advancing packet identifier: %w", err)
		}
	}
	return nil
}

func splitTopics(s string) []string {
	var topics []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

func runDecode(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	stream := fs.Bool("stream", false, "Read a raw packet stream from stdin.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	printer := &eventPrinter{out: out}
	session := client.NewSession(printer)

	if !*stream {
		if fs.NArg() == 0 {
			return fmt.Errorf("decode: no packets given")
		}
		for _, arg := range fs.Args() {
			b, err := hex.DecodeString(strings.ReplaceAll(arg, " ", ""))
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			if err := session.Process(b); err != nil {
				return fmt.Errorf("decode %s: %w (%s)",
					arg, err, mqtt.KindOf(err))
			}
		}
		return printer.err
	}

	r := packets.NewReader(in)
	// Large enough for any packet with a 2 byte remaining length.
	buf := make([]byte, 1+2+16383)
	for {
		n, err := r.ReadPacket(buf)
		if err == io.EOF {
			return printer.err
		} else if mqtt.KindOf(err) == mqtt.BufferTooSmall {
			log.Warn(err)
			continue
		} else if err != nil {
			return err
		}
		if err := session.Process(buf[:n]); err != nil {
			log.WithFields(log.Fields{
				"packet": hex.EncodeToString(buf[:n]),
			}).Warnf("Skipping packet: %s", err)
		}
	}
}

type eventPrinter struct {
	out io.Writer
	err error
}

func (p *eventPrinter) HandleEvent(s *client.Session, ev client.Event) {
	var line string
	switch e := ev.(type) {
	case client.ConnectedEvent:
		line = fmt.Sprintf("session_present=%t return_code=%d",
			e.Result.SessionPresent, e.Result.ReturnCode)
		if err := e.Result.Err(); err != nil {
			line += fmt.Sprintf(" error=%q", err)
		}
	case client.PublishEvent:
		line = fmt.Sprintf("topic=%q qos=%d retain=%t dup=%t packet_id=%d payload=%q",
			e.TopicName, e.QoS, e.Retain, e.Duplicate,
			e.PacketIdentifier, e.Payload)
	case client.PubAckEvent:
		line = fmt.Sprintf("packet_id=%d", e.PacketIdentifier)
	case client.SubAckEvent:
		line = fmt.Sprintf("packet_id=%d return_codes=%v",
			e.PacketIdentifier, e.ReturnCodes)
	case client.UnsubAckEvent:
		line = fmt.Sprintf("packet_id=%d", e.PacketIdentifier)
	case client.ReplyEvent:
		line = hex.EncodeToString(e.Packet)
	}
	line = strings.TrimSpace(ev.Type().String() + " " + line)
	if _, err := fmt.Fprintln(p.out, line); err != nil && p.err == nil {
		p.err = err
	}
}

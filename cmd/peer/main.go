package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dkeye/Stream/internal/adapters/rtc"
	"github.com/dkeye/Stream/internal/client"
	"github.com/dkeye/Stream/internal/domain"
	"github.com/dkeye/Stream/internal/protocol"
	"github.com/gookit/color"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	identity  string
	name      string
	streamID  string
	role      string
	title     string
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:   "peer",
	Short: "Headless streamer or viewer for the stream coordinator.",
	Long: `Joins a stream over the signaling WebSocket and negotiates one WebRTC
peer connection per remote member. Lines typed on stdin are sent as chat;
"/members" lists the room and "/end" ends the stream (streamer only).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		r := client.Viewer
		switch role {
		case "streamer":
			r = client.Streamer
		case "viewer":
		default:
			return fmt.Errorf("unknown role %q", role)
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if streamID == "" {
			if r != client.Streamer || title == "" {
				return errors.New("--stream is required unless a streamer passes --title")
			}
			id, err := createStream(ctx, serverURL, title, identity)
			if err != nil {
				return err
			}
			streamID = id
			fmt.Printf("created stream %s\n", streamID)
		}

		iceCfg, err := fetchICE(ctx, serverURL)
		if err != nil {
			log.Warn().Err(err).Str("module", "peer").Msg("ice servers unavailable, using default")
			iceCfg = rtc.DefaultWebRTCConfig()
		}

		c, err := client.Dial(ctx, client.Options{
			URL:         wsURL(serverURL),
			Identity:    domain.Identity(identity),
			DisplayName: domain.DisplayName(name),
			StreamID:    domain.StreamID(streamID),
			Role:        r,
			NewPeer:     peerFactory(iceCfg),
			OnEvent:     printEvent,
			ExitOnEnd:   true,
		})
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Join(); err != nil {
			return err
		}
		go readInput(c)

		err = c.Run(ctx)
		switch {
		case errors.Is(err, client.ErrStreamEnded):
			fmt.Println(sysLine.Render("* " + domain.StreamEndedMessage))
			return nil
		case errors.Is(err, context.Canceled):
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "coordinator base URL")
	rootCmd.Flags().StringVar(&identity, "identity", "", "stable caller identity")
	rootCmd.Flags().StringVar(&name, "name", "guest", "display name")
	rootCmd.Flags().StringVar(&streamID, "stream", "", "stream id to join")
	rootCmd.Flags().StringVar(&role, "role", "viewer", "streamer or viewer")
	rootCmd.Flags().StringVar(&title, "title", "", "create a stream with this title first (streamer)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")
	_ = rootCmd.MarkFlagRequired("identity")
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func peerFactory(cfg webrtc.Configuration) client.PeerFactory {
	return func(ctx context.Context, remote domain.Identity, r client.Role) (client.Peer, error) {
		pc, err := rtc.NewWebRTCConnection(cfg, remote)
		if err != nil {
			return nil, err
		}
		pc.OnTrack(func(ctx context.Context, track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
			var rcv rtc.Receiver
			st := rcv.Drain(ctx, track)
			fmt.Printf("* %s %s track done: %d packets, %d bytes, %d lost\n", remote, track.Kind(), st.Packets, st.Bytes, st.Lost)
		})
		pc.Start(ctx)
		if r == client.Streamer {
			if err := pc.SendMedia(); err != nil {
				pc.Close()
				return nil, err
			}
		}
		return pc, nil
	}
}

func wsURL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/ws/signal"
	return u.String()
}

func createStream(ctx context.Context, base, title, streamer string) (string, error) {
	body, _ := json.Marshal(map[string]string{"title": title, "streamerId": streamer})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(base, "/")+"/api/streams", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create stream: %s", resp.Status)
	}
	var out struct {
		Stream domain.StreamRecord `json:"stream"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return string(out.Stream.ID), nil
}

func fetchICE(ctx context.Context, base string) (webrtc.Configuration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(base, "/")+"/api/ice", nil)
	if err != nil {
		return webrtc.Configuration{}, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return webrtc.Configuration{}, err
	}
	defer resp.Body.Close()
	var out struct {
		ICEServers []webrtc.ICEServer `json:"iceServers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return webrtc.Configuration{}, err
	}
	return webrtc.Configuration{ICEServers: out.ICEServers}, nil
}

func readInput(c *client.Client) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		var err error
		switch line {
		case "":
			continue
		case "/members":
			err = c.ListMembers("cli")
		case "/end":
			err = c.End()
		case "/leave":
			err = c.Leave()
		default:
			err = c.Chat(line)
		}
		if err != nil {
			log.Warn().Err(err).Str("module", "peer").Msg("send")
		}
	}
}

var (
	sysLine = color.New(color.FgCyan)
	errLine = color.New(color.FgRed)
	nameTag = color.New(color.FgGreen, color.OpBold)
)

func printEvent(ev protocol.Outbound) {
	switch e := ev.(type) {
	case protocol.ChatBroadcast:
		fmt.Printf("[%s] %s: %s\n", e.Timestamp.Local().Format("15:04:05"), nameTag.Render(string(e.DisplayName)), e.Text)
	case protocol.MemberEvent:
		fmt.Println(sysLine.Render(fmt.Sprintf("* %s %s", e.DisplayName, strings.TrimPrefix(string(e.Type), "member-"))))
	case protocol.Members:
		fmt.Println(sysLine.Render("* members: " + strings.Join(e.Members, ", ")))
	case protocol.StreamEnded:
		fmt.Println(sysLine.Render("* " + e.Message))
	case protocol.Error:
		fmt.Println(errLine.Render(fmt.Sprintf("! %s (%s)", e.Error, e.RequestType)))
	}
}

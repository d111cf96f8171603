// widget-term hosts the widget in a terminal: the transcript renders to
// stdout and each input line becomes a chat message. It is the
// reference presentation layer for local development against widgetd.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	widget "github.com/voxkit/assistant-widget"
	"github.com/voxkit/assistant-widget/consent"
)

func main() {
	configPath := flag.String("config", "", "path to a widget configuration JSON blob")
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	w, done, err := buildWidget(*configPath, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "widget-term:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := w.Open(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "widget-term:", err)
		os.Exit(1)
	}

	if w.Phase() == widget.PhaseAwaitingConsent {
		if !promptConsent(w) {
			return
		}
		if err := w.GrantConsent(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "widget-term:", err)
			os.Exit(1)
		}
	}

	fmt.Println("connected — type a message, or /reset, /switch, /quit")
	repl(ctx, w, done)
}

func buildWidget(configPath string, logger *logrus.Logger) (*widget.Widget, chan struct{}, error) {
	done := make(chan struct{}, 1)
	settle := func() {
		select {
		case done <- struct{}{}:
		default:
		}
	}
	hooks := widget.Hooks{
		OnMessage: func(msg widget.Message) {
			fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
			if msg.Role == widget.RoleAssistant {
				settle()
			}
		},
		OnError: func(err error) {
			fmt.Println("error:", err)
			settle()
		},
	}

	opts := []widget.Option{
		widget.WithLogger(logger),
		widget.WithConsentStore(consent.NewMemoryStore()),
		widget.WithHooks(hooks),
	}

	if configPath != "" {
		blob, err := os.ReadFile(configPath)
		if err != nil {
			return nil, nil, err
		}
		w, err := widget.NewFromJSON(blob, opts...)
		return w, done, err
	}

	cfg := widget.Config{
		PublicKey:   envOr("WIDGET_PUBLIC_KEY", "dev-public-key"),
		AssistantID: envOr("WIDGET_ASSISTANT_ID", "dev-assistant"),
		BaseURL:     envOr("WIDGET_BASE_URL", "http://localhost:8090"),
		APIURL:      os.Getenv("WIDGET_API_URL"),
		Mode:        widget.ModeChat,
	}
	w, err := widget.New(cfg, opts...)
	return w, done, err
}

func promptConsent(w *widget.Widget) bool {
	fmt.Println(w.Config().TermsContent)
	fmt.Print("accept? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	if strings.TrimSpace(strings.ToLower(line)) != "y" {
		w.DeclineConsent()
		return false
	}
	return true
}

func repl(ctx context.Context, w *widget.Widget, done chan struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			w.Close()
			return
		case "/reset":
			w.Reset()
			fmt.Println("conversation cleared")
			continue
		case "/switch":
			if err := w.SwitchChannel(otherChannel(w.State().Channel)); err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Println("channel switched; history cleared")
			}
			continue
		}

		if err := w.SendChat(ctx, line); err != nil {
			fmt.Println("error:", err)
			continue
		}
		select {
		case <-done:
		case <-time.After(35 * time.Second):
			fmt.Println("still waiting for a reply...")
		}
	}
}

func otherChannel(ch widget.Channel) widget.Channel {
	if ch == widget.ChannelChat {
		return widget.ChannelVoice
	}
	return widget.ChannelChat
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

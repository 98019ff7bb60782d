package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"plume/internal/catalog"
	"plume/internal/config"
	"plume/internal/domain/models"
	"plume/internal/domain/services"
	"plume/internal/service/ai"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type CLI struct {
	ctx       context.Context
	assistant services.WritingAssistant
	tracks    *catalog.Catalog
	providers *ai.ProviderFactory
	model     string
	identity  *models.Identity
	scanner   *bufio.Scanner
	eof       bool
	logger    *slog.Logger
}

// setupLogger creates a logger that writes to both console and file
func setupLogger() (*slog.Logger, string, error) {
	logsDir := "logs"
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logFilename := filepath.Join(logsDir, fmt.Sprintf("ai_cli_%s.log", timestamp))

	logFile, err := os.Create(logFilename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create log file: %w", err)
	}

	// Console stays quiet so tool output is readable; the file gets everything.
	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})
	fileHandler := slog.NewTextHandler(logFile, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if src, ok := a.Value.Any().(*slog.Source); ok {
					return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return a
		},
	})

	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}), logFilename, nil
}

// multiHandler writes to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, record.Level) {
			if err := handler.Handle(ctx, record.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

func main() {
	_ = godotenv.Load()

	logger, logFile, err := setupLogger()
	if err != nil {
		fmt.Printf("Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("session started", "log_file", logFile)

	cfg := config.Load()

	tracks, err := catalog.Load()
	if err != nil {
		fmt.Printf("%s❌ Failed to load learning tracks: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}

	gen, err := ai.NewGenerator(cfg)
	if err != nil {
		fmt.Printf("%s❌ Failed to setup generator: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
	logger.Info("generator ready", "provider", cfg.AIProvider)

	uid := os.Getenv("TEST_USER_ID")
	if uid == "" {
		uid = "cli-user"
	}

	cli := &CLI{
		ctx:       context.Background(),
		assistant: ai.NewService(gen, tracks, logger),
		tracks:    tracks,
		providers: ai.NewProviderFactory(cfg),
		model:     cfg.AIModel,
		identity:  &models.Identity{UID: uid, DisplayName: "CLI"},
		scanner:   bufio.NewScanner(os.Stdin),
		logger:    logger,
	}
	cli.run(cfg.AIProvider)
}

func (cli *CLI) run(provider string) {
	fmt.Printf("\n%s╔══════════════════════════════════════╗%s\n", colorCyan, colorReset)
	fmt.Printf("%s║      Plume Writing Tools CLI         ║%s\n", colorCyan, colorReset)
	fmt.Printf("%s╚══════════════════════════════════════╝%s\n", colorCyan, colorReset)
	fmt.Printf("%sProvider: %s | User: %s%s\n", colorBlue, provider, cli.identity.UID, colorReset)

	actions := map[string]func(){
		"1": cli.rhymes,
		"2": cli.prompts,
		"3": cli.feedback,
		"4": cli.inspiration,
		"5": cli.tutor,
		"6": cli.chat,
		"7": cli.raw,
	}

	for {
		fmt.Println("\n" + strings.Repeat("─", 40))
		fmt.Println("1. Rhymes")
		fmt.Println("2. Writing prompts")
		fmt.Println("3. Feedback on a text")
		fmt.Println("4. Inspiration")
		fmt.Println("5. Tutor")
		fmt.Println("6. Chat with an artist")
		fmt.Println("7. Raw provider call")
		fmt.Println("8. Exit")
		fmt.Print("\nSelect option (1-8): ")

		choice := cli.readLine()
		fmt.Println()
		cli.logger.Debug("menu selection", "choice", choice)

		if choice == "8" || choice == "q" || cli.eof {
			fmt.Printf("%s✓ À bientôt!%s\n", colorGreen, colorReset)
			return
		}
		action, ok := actions[choice]
		if !ok {
			fmt.Printf("%s⚠ Invalid choice. Please enter 1-8.%s\n", colorYellow, colorReset)
			continue
		}
		action()
	}
}

func (cli *CLI) rhymes() {
	word := cli.prompt("Word")
	resp, err := cli.assistant.Rhymes(cli.ctx, &services.RhymesRequest{Word: word})
	if cli.failed("rhymes", err) {
		return
	}
	printList(resp.Rhymes)
}

func (cli *CLI) prompts() {
	req := &services.PromptsRequest{
		Genre:    cli.prompt("Genre (poetry/slam/rap)"),
		Language: cli.prompt("Language (french/english)"),
	}
	if n, err := strconv.Atoi(cli.prompt("Count (1-5)")); err == nil {
		req.Count = n
	}
	resp, err := cli.assistant.Prompts(cli.ctx, req)
	if cli.failed("prompts", err) {
		return
	}
	printList(resp.Prompts)
}

func (cli *CLI) feedback() {
	req := &services.FeedbackRequest{
		Text:  cli.prompt("Text"),
		Style: cli.prompt("Style"),
	}
	resp, err := cli.assistant.Feedback(cli.ctx, req)
	if cli.failed("feedback", err) {
		return
	}
	fmt.Printf("\n%s%s%s\n", colorGreen, resp.Feedback, colorReset)
	printList(resp.Suggestions)
}

func (cli *CLI) inspiration() {
	resp, err := cli.assistant.Inspiration(cli.ctx, &services.InspirationRequest{Word: cli.prompt("Word")})
	if cli.failed("inspiration", err) {
		return
	}
	for _, p := range resp.Paragraphs {
		fmt.Printf("\n%s\n", p)
	}
}

func (cli *CLI) tutor() {
	for _, t := range cli.tracks.Tracks() {
		fmt.Printf("  %s%s%s  %s\n", colorBlue, t.ID, colorReset, t.Title)
	}
	req := &services.TutorRequest{
		TrackID: cli.prompt("Track (optional)"),
		Topic:   cli.prompt("Topic"),
		Mode:    services.TutorMode(cli.prompt("Mode (explain/quiz)")),
	}
	resp, err := cli.assistant.Tutor(cli.ctx, req)
	if cli.failed("tutor", err) {
		return
	}
	if resp.Explanation != "" {
		fmt.Printf("\n%s\n", resp.Explanation)
	}
	for i, q := range resp.Quiz {
		fmt.Printf("\n%d. %s\n", i+1, q.Question)
		printList(q.Options)
		fmt.Printf("   %sanswer: %s%s\n", colorGreen, q.Answer, colorReset)
	}
}

func (cli *CLI) chat() {
	recipient := cli.prompt("Artist")
	fmt.Printf("%sEmpty message returns to the menu.%s\n", colorBlue, colorReset)
	for {
		message := cli.prompt("You")
		if message == "" || cli.eof {
			return
		}
		start := time.Now()
		resp, err := cli.assistant.Chat(cli.ctx, cli.identity, &services.ChatRequest{
			Recipient: recipient,
			Message:   message,
		})
		if cli.failed("chat", err) {
			continue
		}
		cli.logger.Debug("chat reply", "duration", time.Since(start), "length", len(resp.Reply))
		fmt.Printf("%s%s:%s %s\n", colorCyan, recipient, colorReset, resp.Reply)
	}
}

// raw sends one prompt straight to an LLM provider, bypassing the tools.
// The lorem provider needs no API key and answers models named "lorem-*".
func (cli *CLI) raw() {
	name := cli.prompt("Provider (anthropic/lorem)")
	model := cli.prompt("Model (empty for default)")
	if model == "" {
		model = cli.model
		if name == "lorem" {
			model = "lorem-fast"
		}
	}

	provider, err := cli.providers.GetProvider(name)
	if cli.failed("raw", err) {
		return
	}
	gen, err := ai.NewProviderGenerator(provider, model)
	if cli.failed("raw", err) {
		return
	}

	start := time.Now()
	text, err := gen.Generate(cli.ctx, &ai.Request{
		System: cli.prompt("System (optional)"),
		Prompt: cli.prompt("Prompt"),
	})
	if cli.failed("raw", err) {
		return
	}
	cli.logger.Debug("raw reply", "provider", gen.Name(), "model", model, "duration", time.Since(start))
	fmt.Printf("\n%s%s%s\n", colorGreen, text, colorReset)
}

func (cli *CLI) failed(tool string, err error) bool {
	if err == nil {
		return false
	}
	cli.logger.Error("tool failed", "tool", tool, "error", err)
	fmt.Printf("%s❌ %s failed: %v%s\n", colorRed, tool, err, colorReset)
	return true
}

func (cli *CLI) prompt(label string) string {
	fmt.Printf("%s: ", label)
	return cli.readLine()
}

func (cli *CLI) readLine() string {
	if !cli.scanner.Scan() {
		cli.eof = true
		return ""
	}
	return strings.TrimSpace(cli.scanner.Text())
}

func printList(items []string) {
	for _, item := range items {
		fmt.Printf("  • %s\n", item)
	}
}

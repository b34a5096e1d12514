package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/memo-bridge/internal/bridge"
	"github.com/xaenox/memo-bridge/internal/knowledge"
	"github.com/xaenox/memo-bridge/internal/models"
	"github.com/xaenox/memo-bridge/internal/storage"
	"go.uber.org/zap"
)

const (
	historyLimit = 5
	// replyLimit keeps escaped replies under Telegram's 4096 character cap.
	replyLimit = 3000
)

// Asker is implemented by *bridge.Service.
type Asker interface {
	Ask(ctx context.Context, req bridge.AskRequest) (bridge.AskResult, error)
}

// Sender is the part of *tgbotapi.BotAPI used to answer chats.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api     *tgbotapi.BotAPI
	sender  Sender
	asker   Asker
	journal storage.Storage
	logger  *zap.Logger
}

func New(token string, asker Asker, journal storage.Storage, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := newBot(api, asker, journal, logger)
	b.api = api
	return b, nil
}

func newBot(sender Sender, asker Asker, journal storage.Storage, logger *zap.Logger) *Bot {
	return &Bot{
		sender:  sender,
		asker:   asker,
		journal: journal,
		logger:  logger,
	}
}

// Start receives updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	if strings.TrimSpace(content) == "" {
		b.sendMessage(message.Chat.ID, "Please send a text question.")
		return
	}

	res, err := b.asker.Ask(ctx, bridge.AskRequest{Prompt: content, Classify: true})
	if err != nil {
		b.logger.Error("Failed to ask assistant",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, the assistant did not answer. Please try again.")
		return
	}
	if res.StoreErr != nil {
		b.logger.Warn("Reply was not saved to Notion",
			zap.Error(res.StoreErr),
			zap.String("exchange_id", res.Exchange.ID))
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, formatReply(res.Exchange))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyToMessageID = message.MessageID
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send reply",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.sendMessage(message.Chat.ID, welcomeText)
	case "help":
		b.sendMessage(message.Chat.ID, helpText)
	case "categories":
		b.handleCategories(ctx, message)
	case "history":
		b.handleHistory(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

const welcomeText = `Welcome to memo-bridge!
Ask me anything and I'll pass it to the assistant, then file the answer in Notion with a category and tags.

Use /help to see all available commands.`

const helpText = `Available commands:
/start - Start the bot
/help - Show this help message
/history - Show recent questions
/categories - Show categories used so far

Any other text is sent to the assistant.`

func (b *Bot) handleCategories(ctx context.Context, message *tgbotapi.Message) {
	categories, err := b.journal.Categories(ctx)
	if err != nil {
		b.logger.Error("Failed to get categories", zap.Error(err))
		b.sendErrorMessage(message.Chat.ID, "Sorry, failed to retrieve categories. Please try again later.")
		return
	}

	if len(categories) == 0 {
		b.sendMessage(message.Chat.ID, "There are no categories yet.")
		return
	}
	b.sendMarkdown(message.Chat.ID, formatCategories(categories))
}

func (b *Bot) handleHistory(ctx context.Context, message *tgbotapi.Message) {
	exchanges, err := b.journal.RecentExchanges(ctx, historyLimit, 0)
	if err != nil {
		b.logger.Error("Failed to get exchange history", zap.Error(err))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't retrieve the history.")
		return
	}

	if len(exchanges) == 0 {
		b.sendMessage(message.Chat.ID, "Nothing has been asked yet.")
		return
	}
	b.sendMarkdown(message.Chat.ID, formatHistory(exchanges))
}

func formatReply(ex models.Exchange) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Category:* %s\n", escapeMarkdown(hashtag(ex.Category)))
	if len(ex.Tags) > 0 {
		fmt.Fprintf(&sb, "*Tags:* %s\n", hashtags(ex.Tags))
	}
	sb.WriteString("\n")
	sb.WriteString(escapeMarkdown(knowledge.Truncate(ex.Reply, replyLimit)))
	return sb.String()
}

func formatCategories(categories []string) string {
	var sb strings.Builder
	sb.WriteString("*Categories:*\n")
	for _, category := range categories {
		sb.WriteString(escapeMarkdown(hashtag(category)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatHistory(exchanges []*models.Exchange) string {
	var sb strings.Builder
	sb.WriteString("*Recent questions:*\n\n")
	for _, ex := range exchanges {
		fmt.Fprintf(&sb, "*%s*\n", escapeMarkdown(ex.Category))
		fmt.Fprintf(&sb, "_%s_\n", escapeMarkdown(knowledge.Title(ex.Prompt)))
		if len(ex.Tags) > 0 {
			fmt.Fprintf(&sb, "Tags: %s\n", hashtags(ex.Tags))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func hashtag(s string) string {
	return "#" + strings.ReplaceAll(s, " ", "_")
}

func hashtags(tags []string) string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = escapeMarkdown(hashtag(tag))
	}
	return strings.Join(out, " ")
}

// escapeMarkdown escapes the MarkdownV2 special characters.
func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-job-acquirer/internal/browser"
	"go-job-acquirer/internal/models"
)

// sender is the part of *tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot posts qualified jobs and run status to one chat.
type Bot struct {
	api    sender
	chatID int64
}

func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Bot{
		api:    api,
		chatID: chatID,
	}, nil
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}

// escapeURL escapes what MarkdownV2 forbids inside a link target.
func escapeURL(u string) string {
	return strings.NewReplacer(`\`, `\\`, ")", `\)`).Replace(u)
}

func (b *Bot) jobMessage(job models.ScoredJob) tgbotapi.MessageConfig {
	msgText := fmt.Sprintf("🔥 *%s*\n", escapeMarkdown(job.Title))
	msgText += fmt.Sprintf("🏢 %s\n", escapeMarkdown(job.Company))
	msgText += fmt.Sprintf("🤖 Match Score: %d%%\n", job.Score)
	msgText += fmt.Sprintf("🔗 [View Job](%s)\n", escapeURL(job.Link))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔗 Apply Now", job.Link),
		),
	)

	msg := tgbotapi.NewMessage(b.chatID, msgText)
	msg.ParseMode = "MarkdownV2"
	msg.ReplyMarkup = keyboard
	return msg
}

// Handoff posts one message per qualified job.
func (b *Bot) Handoff(ctx context.Context, _ *browser.Session, jobs []models.ScoredJob) error {
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := b.api.Send(b.jobMessage(job)); err != nil {
			return fmt.Errorf("send job %s: %w", job.ID, err)
		}
	}
	return nil
}

func (b *Bot) SendError(err error) error {
	msg := tgbotapi.NewMessage(b.chatID, fmt.Sprintf("❌ Error: %v", err))
	_, sendErr := b.api.Send(msg)
	return sendErr
}

func (b *Bot) SendStatus(message string) error {
	msg := tgbotapi.NewMessage(b.chatID, "ℹ️ "+message)
	_, err := b.api.Send(msg)
	return err
}

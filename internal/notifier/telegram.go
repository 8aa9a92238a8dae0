// Package notifier delivers review reminders over Telegram.
package notifier

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram sends reminders to users who linked a Telegram chat
type Telegram struct {
	api *tgbotapi.BotAPI
}

// New creates a Telegram notifier. An empty token returns a nil notifier,
// which every method treats as a no-op, so reminders are simply off when
// TELEGRAM_BOT_TOKEN is unset.
func New(token string) (*Telegram, error) {
	if token == "" {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %v", err)
	}
	log.Printf("Telegram notifier authorized as %s", api.Self.UserName)
	return &Telegram{api: api}, nil
}

// SendReminders implements the scheduler.Notifier interface
func (t *Telegram) SendReminders(chatID int64, count int) error {
	if t == nil {
		return nil
	}

	questionForm := "questions"
	if count == 1 {
		questionForm = "question"
	}
	msg := tgbotapi.NewMessage(chatID,
		fmt.Sprintf("You have %d %s ready for review. Open your queue to keep going.", count, questionForm))

	if _, err := t.api.Send(msg); err != nil {
		log.Printf("Error sending reminder to chat %d: %v", chatID, err)
		return err
	}
	log.Printf("Sent reminder to chat %d for %d questions", chatID, count)
	return nil
}

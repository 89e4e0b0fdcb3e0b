package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	config "autopost/configs"
	"autopost/internal/models"
	"autopost/internal/repository"
)

type TelegramService interface {
	RegisterChannel(ctx context.Context, userID int64, channel string) error
	PublishMedia(ctx context.Context, acc *models.Account, entry *models.QueueEntry, mediaURL string) error
}

type telegramService struct {
	cfg config.Config
	a   repository.AccountRepository
	bot *tele.Bot
}

func NewTelegramService(cfg config.Config, a repository.AccountRepository) TelegramService {
	return &telegramService{
		cfg: cfg,
		a:   a,
	}
}

func (t *telegramService) client() (*tele.Bot, error) {
	if t.bot != nil {
		return t.bot, nil
	}
	if strings.TrimSpace(t.cfg.TelegramBotToken) == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	b, err := tele.NewBot(tele.Settings{Token: t.cfg.TelegramBotToken})
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	t.bot = b
	return b, nil
}

// RegisterChannel connects a channel the bot administers. channel is either a
// public @username or a raw chat ID.
func (t *telegramService) RegisterChannel(ctx context.Context, userID int64, channel string) error {
	if userID == 0 {
		err := errors.New("User not found")
		slog.Info(err.Error())
		return err
	}

	bot, err := t.client()
	if err != nil {
		return err
	}

	var chat *tele.Chat
	if id, convErr := strconv.ParseInt(channel, 10, 64); convErr == nil {
		chat, err = bot.ChatByID(id)
	} else {
		chat, err = bot.ChatByUsername(channel)
	}
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to resolve channel %s: %v", channel, err)
	}

	accountInfo := &models.Account{
		UserID:          userID,
		AccountID:       strconv.FormatInt(chat.ID, 10),
		AccountName:     chat.Title,
		AccountUsername: chat.Username,
	}

	_, err = t.a.Create(ctx, nil, models.PlatformTelegram, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

// PublishMedia sends one queue entry to the account's channel. Telegram
// downloads the media itself, so a presigned URL is enough.
func (t *telegramService) PublishMedia(ctx context.Context, acc *models.Account, entry *models.QueueEntry, mediaURL string) error {
	bot, err := t.client()
	if err != nil {
		return err
	}

	chatID, err := strconv.ParseInt(acc.AccountID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat ID %q: %v", acc.AccountID, err)
	}
	chat := &tele.Chat{ID: chatID}

	var media tele.Sendable
	if isVideoName(entry.MediaName) {
		media = &tele.Video{File: tele.FromURL(mediaURL), Caption: entry.Caption}
	} else {
		media = &tele.Photo{File: tele.FromURL(mediaURL), Caption: entry.Caption}
	}

	if _, err := bot.Send(chat, media); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to send media to channel %d: %v", chatID, err)
	}

	return nil
}

func isVideoName(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".mp4", ".mov", ".webm", ".mkv":
		return true
	}
	return false
}

package queue

import (
	"time"

	"github.com/hibiken/asynq"

	"autopost/internal/repository"
	"autopost/internal/service"
)

type Worker struct {
	a      repository.AccountRepository
	ph     repository.PostingHistoryRepository
	r2     *service.R2Service
	ig     service.InstagramService
	tg     service.TelegramService
	yt     service.YoutubeService
	client *asynq.Client
	loc    *time.Location
}

func NewWorker(
	a repository.AccountRepository,
	ph repository.PostingHistoryRepository,
	r2 *service.R2Service,
	ig service.InstagramService,
	tg service.TelegramService,
	yt service.YoutubeService,
	client *asynq.Client,
	loc *time.Location) *Worker {
	return &Worker{
		a:      a,
		ph:     ph,
		r2:     r2,
		ig:     ig,
		tg:     tg,
		yt:     yt,
		client: client,
		loc:    loc,
	}
}

const TaskTypeDispatchPublish = "dispatch:publish"

type DispatchPayload struct {
	Platform string `json:"platform"`
}

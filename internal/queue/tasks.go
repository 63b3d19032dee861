// Package queue runs radio renders in the background on asynq.
package queue

import (
	"github.com/hibiken/asynq"

	"github.com/radio-t/webradio/podcast"
)

// TypeRender is the task type of a background render
const TypeRender = "radio:render"

// render tasks go to the default asynq queue
const queueName = "default"

// RenderPayload is the task payload of a background render
type RenderPayload struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Style    string `json:"style"`
	Language string `json:"language"`
}

// Request returns the render request carried by the payload
func (p RenderPayload) Request() podcast.RenderRequest {
	return podcast.RenderRequest{URL: p.URL, Style: p.Style, Language: p.Language}
}

// RedisConfig describes the redis instance backing the queue
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) clientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

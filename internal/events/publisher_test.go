package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

func TestPublishEventIsNilSafe(t *testing.T) {
	evt := universe.SignificantEvent{
		Timestamp:   time.Now().UTC(),
		Type:        "first_star",
		Description: "First light",
	}

	var p *Publisher
	p.PublishEvent("u-1", evt)

	NewPublisher(nil, zerolog.Nop()).PublishEvent("u-2", evt)
}

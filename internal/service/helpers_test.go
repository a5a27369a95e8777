package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/skolahub/skola-api/internal/dto"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type recorderStub struct {
	entries []ActivityEntry
	err     error
}

func (r *recorderStub) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	if r.err != nil {
		return dto.ActivityResponse{}, r.err
	}
	r.entries = append(r.entries, entry)
	return dto.ActivityResponse{ID: uint(len(r.entries)), Action: entry.Action}, nil
}

type notifierStub struct {
	sent []string
	err  error
}

func (n *notifierStub) Notify(ctx context.Context, userID uint, kind, message string) (dto.NotificationResponse, error) {
	if n.err != nil {
		return dto.NotificationResponse{}, n.err
	}
	n.sent = append(n.sent, kind)
	return dto.NotificationResponse{ID: uint(len(n.sent)), UserID: userID, Type: kind, Message: message}, nil
}

// Package api describes spacechat.v1.ProvisioningService: its messages, service descriptor and client stub.
// Messages travel with the JSON codec.
package api

import (
	"space-chat/domain"
	"space-chat/domain/event"
	"time"

	"github.com/samber/lo"
)

type CreateRoomRequest struct {
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

type MembershipRequest struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
}

type RoomResponse struct {
	RoomID           string             `json:"roomId"`
	Name             string             `json:"name"`
	Participants     []string           `json:"participants"`
	LeftParticipants []string           `json:"leftParticipants"`
	LastSeq          uint64             `json:"lastSeq"`
	LastMessage      *event.SummaryView `json:"lastMessage,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}

func ToRoomResponse(r domain.Room) *RoomResponse {
	return &RoomResponse{
		RoomID:           string(r.ID),
		Name:             r.Name,
		Participants:     toStrings(r.ParticipantIDs()),
		LeftParticipants: toStrings(r.LeftParticipantIDs()),
		LastSeq:          r.LastSeq,
		LastMessage:      event.ToSummaryView(r.LastMessage),
		CreatedAt:        r.CreatedAt,
	}
}

type PublishNotificationRequest struct {
	RecipientID string `json:"recipientId"`
	Kind        string `json:"kind"`
	Content     string `json:"content"`
}

type NotificationResponse struct {
	Notification event.NotificationView `json:"notification"`
}

type GetHistoryRequest struct {
	RoomID   string `json:"roomId"`
	AfterSeq uint64 `json:"afterSeq"`
	Limit    int    `json:"limit"`
}

type HistoryResponse struct {
	Messages []event.MessageView `json:"messages"`
}

type GetUnreadRequest struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
}

type UnreadResponse struct {
	Unread event.UnreadView `json:"unread"`
}

type ListRoomsRequest struct {
	ParticipantID string `json:"participantId"`
}

type ListRoomsResponse struct {
	Active []string `json:"active"`
	Left   []string `json:"left"`
}

func ToParticipantIDs(ids []string) []domain.ParticipantID {
	return lo.Map(ids, func(id string, _ int) domain.ParticipantID { return domain.ParticipantID(id) })
}

func toStrings[T ~string](values []T) []string {
	return lo.Map(values, func(v T, _ int) string { return string(v) })
}

func RoomIDs(ids []domain.RoomID) []string { return toStrings(ids) }

package http

import (
	"encoding/json"

	"github.com/dmarkhas/relaychat-server/internal/core"
	"github.com/dmarkhas/relaychat-server/internal/proto"
	"github.com/dmarkhas/relaychat-server/internal/store"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.ErrorPayload, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.ChannelData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.ChannelID <= 0 {
			return nil, &proto.ErrorPayload{Code: core.ErrCodeBadRequest, Message: "channelId is required"}, nil
		}
		return &core.Command{
			Kind:      core.CommandJoinChannel,
			ChannelID: join.ChannelID,
		}, nil, nil
	case proto.InboundTypeLeave:
		var leave proto.ChannelData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, nil, err
		}
		if leave.ChannelID <= 0 {
			return nil, &proto.ErrorPayload{Code: core.ErrCodeBadRequest, Message: "channelId is required"}, nil
		}
		return &core.Command{
			Kind:      core.CommandLeaveChannel,
			ChannelID: leave.ChannelID,
		}, nil, nil
	case proto.InboundTypeSend:
		var send proto.SendData
		if err := json.Unmarshal(inbound.Data, &send); err != nil {
			return nil, nil, err
		}
		if send.ChannelID <= 0 {
			return nil, &proto.ErrorPayload{Code: core.ErrCodeBadRequest, Message: "channelId is required"}, nil
		}
		// Content is validated by the ingest pipeline.
		return &core.Command{
			Kind:      core.CommandSendMessage,
			ChannelID: send.ChannelID,
			Content:   send.Content,
		}, nil, nil
	default:
		return nil, &proto.ErrorPayload{Code: "invalid_message", Message: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventNewMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeMessage,
			Data: messagePayload(event.Message),
		}
	case core.EventPresence:
		ids := event.OnlineUserIDs
		if ids == nil {
			ids = []int64{}
		}
		return proto.Outbound{
			Type: proto.OutboundTypePresence,
			Data: proto.PresencePayload{OnlineUserIDs: ids},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{
				Type: proto.OutboundTypeError,
				Data: proto.ErrorPayload{Code: "unknown", Message: "unknown error"},
			}
		}
		return proto.Outbound{
			Type: proto.OutboundTypeError,
			Data: proto.ErrorPayload{Code: event.Error.Code, Message: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Data: proto.ErrorPayload{Code: "unknown", Message: "unknown event"}}
	}
}

// messagePayload normalizes a stored message for delivery, identical for
// socket broadcasts and REST history responses.
func messagePayload(msg *store.Message) proto.MessagePayload {
	return proto.MessagePayload{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
		User: proto.UserRef{
			ID:   msg.UserID,
			Name: msg.UserName,
		},
	}
}

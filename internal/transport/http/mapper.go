package http

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/teamchat/teamchat-server/internal/core"
	"github.com/teamchat/teamchat-server/internal/proto"
	"github.com/teamchat/teamchat-server/internal/store"
)

// dispatch routes one inbound event to the facade and returns the ack to
// send to the caller, if any. Domain errors become error envelopes for the
// sender; anything else tears the connection down.
func (h *WSHandler) dispatch(ctx context.Context, connID string, inbound proto.Inbound) (*proto.Outbound, error) {
	switch inbound.Event {
	case proto.InboundRegister:
		var data proto.RegisterData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		if err := h.facade.Register(ctx, connID, data.UserID); err != nil {
			return errorOutbound(err)
		}
		return &proto.Outbound{
			Event: proto.OutboundRegistered,
			Data:  proto.RegisteredData{UserID: data.UserID},
		}, nil

	case proto.InboundJoinRoom:
		var data proto.JoinRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		if _, err := h.facade.JoinRoom(ctx, connID, data.RoomID, data.UserID); err != nil {
			return errorOutbound(err)
		}
		return &proto.Outbound{
			Event: proto.OutboundJoinedRoom,
			Data:  proto.JoinedRoomData{RoomID: data.RoomID},
		}, nil

	case proto.InboundLeaveRoom:
		var data proto.LeaveRoomData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		if err := h.facade.LeaveRoom(ctx, connID, data.RoomID, data.UserID); err != nil {
			return errorOutbound(err)
		}
		return &proto.Outbound{
			Event: proto.OutboundLeftRoom,
			Data:  proto.LeftRoomData{RoomID: data.RoomID},
		}, nil

	case proto.InboundSendMessage:
		var data proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		// No direct ack: the sender observes its own message via the
		// room broadcast.
		if _, err := h.facade.SendMessage(ctx, data.RoomID, data.UserID, data.Content, store.MessageKind(data.MessageType)); err != nil {
			return errorOutbound(err)
		}
		return nil, nil

	default:
		return &proto.Outbound{
			Event: proto.OutboundError,
			Error: &proto.Error{Code: "invalid_event", Msg: "unknown event"},
		}, nil
	}
}

// errorOutbound maps a domain error to an error envelope for the sender.
// Non-domain errors propagate and close the connection.
func errorOutbound(err error) (*proto.Outbound, error) {
	var domainErr *core.Error
	if errors.As(err, &domainErr) {
		return &proto.Outbound{
			Event: proto.OutboundError,
			Error: &proto.Error{Code: domainErr.Code, Msg: domainErr.Message},
		}, nil
	}
	return nil, err
}

func outboundFromEvent(event core.Event) proto.Outbound {
	if event.Name == core.EventError {
		if e, ok := event.Payload.(*core.Error); ok {
			return proto.Outbound{
				Event: proto.OutboundError,
				Error: &proto.Error{Code: e.Code, Msg: e.Message},
			}
		}
		return proto.Outbound{
			Event: proto.OutboundError,
			Error: &proto.Error{Code: "unknown", Msg: "unknown error"},
		}
	}
	return proto.Outbound{
		Event: event.Name,
		Data:  event.Payload,
	}
}

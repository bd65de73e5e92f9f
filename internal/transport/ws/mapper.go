package ws

import (
	"github.com/mkravets/roomwire-server/internal/core"
	"github.com/mkravets/roomwire-server/internal/proto"
)

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventWelcome:
		return proto.Outbound{
			Event: proto.EventWelcome,
			Data:  event.Value,
		}
	case core.EventJoinSuccess:
		return proto.Outbound{
			Event: proto.EventRoomJoinSuccess,
			Seq:   event.Seq,
			Data:  proto.RoomData{RoomID: event.RoomID},
		}
	case core.EventJoinError:
		return errorOutbound(proto.EventRoomJoinError, event)
	case core.EventLeaveSuccess:
		return proto.Outbound{
			Event: proto.EventRoomLeaveSuccess,
			Seq:   event.Seq,
			Data:  proto.RoomData{RoomID: event.RoomID},
		}
	case core.EventLeaveError:
		return errorOutbound(proto.EventRoomLeaveError, event)
	case core.EventCurrentRoom:
		var roomID *string
		if event.RoomID != "" {
			roomID = &event.RoomID
		}
		return proto.Outbound{
			Event: proto.EventRoomGetSuccess,
			Seq:   event.Seq,
			Data:  proto.CurrentRoomData{RoomID: roomID},
		}
	case core.EventGetError:
		return errorOutbound(proto.EventRoomGetError, event)
	case core.EventRoomList:
		if event.Err != nil {
			return proto.Outbound{
				Event: proto.EventRoomList,
				Seq:   event.Seq,
				Data:  proto.ListAck{Success: false},
				Error: protoError(event.Err),
			}
		}
		rooms := make(map[string]proto.RoomInfo, len(event.Rooms))
		for _, room := range event.Rooms {
			rooms[room.ID] = roomInfo(room)
		}
		return proto.Outbound{
			Event: proto.EventRoomList,
			Seq:   event.Seq,
			Data:  proto.ListAck{Success: true, Rooms: rooms},
		}
	case core.EventCreateAck:
		if event.Err != nil {
			return proto.Outbound{
				Event: proto.EventRoomCreate,
				Seq:   event.Seq,
				Data:  proto.CreateAck{Success: false},
				Error: protoError(event.Err),
			}
		}
		return proto.Outbound{
			Event: proto.EventRoomCreate,
			Seq:   event.Seq,
			Data:  proto.CreateAck{Success: true},
		}
	case core.EventRoomCreated:
		return proto.Outbound{
			Event: proto.EventRoomCreateSuccess,
			Data:  proto.CreatedData{ID: event.Room.ID, RoomName: event.Room.Name},
		}
	case core.EventRoomMessage:
		return proto.Outbound{
			Event: proto.EventRoomMessage,
			Data: proto.RoomMessageData{
				RoomID: event.RoomID,
				From:   event.From,
				Text:   event.Value,
			},
		}
	case core.EventNotification:
		return proto.Outbound{
			Event: proto.EventNotification,
			Data:  proto.NotificationData{ID: event.NoteID, Value: event.Value},
		}
	case core.EventError:
		if event.Err == nil {
			return proto.Outbound{Event: proto.EventError, Seq: event.Seq, Error: &proto.Error{Code: "unknown", Message: "unknown error"}}
		}
		return proto.Outbound{
			Event: proto.EventError,
			Seq:   event.Seq,
			Error: protoError(event.Err),
		}
	default:
		return proto.Outbound{Event: proto.EventError, Error: &proto.Error{Code: "unknown", Message: "unknown event kind"}}
	}
}

func errorOutbound(name string, event *core.Event) proto.Outbound {
	msg := "unknown error"
	var perr *proto.Error
	if event.Err != nil {
		msg = event.Err.Message
		perr = protoError(event.Err)
	}
	return proto.Outbound{
		Event: name,
		Seq:   event.Seq,
		Data:  proto.ErrorData{Message: msg},
		Error: perr,
	}
}

func protoError(err *core.Error) *proto.Error {
	return &proto.Error{Code: err.Code, Message: err.Message}
}

func roomInfo(room *core.Room) proto.RoomInfo {
	return proto.RoomInfo{
		ID:        room.ID,
		Name:      room.Name,
		Owner:     room.Owner,
		CreatedAt: room.CreatedAt.Unix(),
	}
}

// Package domain contains entities without logic, just meta-data.
package domain

// Kind tags every frame exchanged over the collaboration socket.
// Kinds not listed here are opaque edit payloads and are relayed verbatim.
type Kind string

const (
	KindJoin           Kind = "join"
	KindRoomJoined     Kind = "room_joined"
	KindInitialContent Kind = "initial_content"
	KindError          Kind = "error"
	KindNotification   Kind = "notification"
	KindCreateFile     Kind = "create_file"
	KindDeleteFile     Kind = "delete_file"
)

// HostOnly reports whether a kind is a structural edit reserved for the host.
func (k Kind) HostOnly() bool {
	return k == KindCreateFile || k == KindDeleteFile
}

// Server-originated frames. Client payloads are not modeled as structs:
// they are stamped and relayed as raw JSON.

type RoomJoined struct {
	Type   Kind   `json:"type"`
	RoomID RoomID `json:"roomId"`
	Role   Role   `json:"role"`
}

type InitialContent struct {
	Type    Kind   `json:"type"`
	Content string `json:"content"`
}

type ErrorFrame struct {
	Type    Kind   `json:"type"`
	Message string `json:"message"`
}

type Notification struct {
	Type    Kind          `json:"type"`
	Content string        `json:"content"`
	UserID  ParticipantID `json:"userId"`
}

func NewRoomJoined(room RoomID, role Role) RoomJoined {
	return RoomJoined{Type: KindRoomJoined, RoomID: room, Role: role}
}

func NewInitialContent(content string) InitialContent {
	return InitialContent{Type: KindInitialContent, Content: content}
}

func NewError(message string) ErrorFrame {
	return ErrorFrame{Type: KindError, Message: message}
}

func NewNotification(content string, user ParticipantID) Notification {
	return Notification{Type: KindNotification, Content: content, UserID: user}
}

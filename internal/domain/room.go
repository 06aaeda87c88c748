package domain

type (
	RoomID        string
	ParticipantID string
)

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Room is the persisted room record shared by every server instance.
// Live connections and cached state never go here.
type Room struct {
	ID       RoomID
	Password string
	HostID   ParticipantID
}

// Admission is the outcome of evaluating a join attempt.
type Admission int

const (
	AdmissionNotFound Admission = iota
	AdmissionPasswordRequired
	AdmissionInvalidPassword
	AdmittedHost
	AdmittedGuest
)

func (a Admission) Admitted() bool {
	return a == AdmittedHost || a == AdmittedGuest
}

// Role is only meaningful for admitted outcomes.
func (a Admission) Role() Role {
	if a == AdmittedHost {
		return RoleHost
	}
	return RoleGuest
}

func (a Admission) String() string {
	switch a {
	case AdmissionNotFound:
		return "not_found"
	case AdmissionPasswordRequired:
		return "password_required"
	case AdmissionInvalidPassword:
		return "invalid_password"
	case AdmittedHost:
		return "admitted_host"
	case AdmittedGuest:
		return "admitted_guest"
	}
	return "unknown"
}

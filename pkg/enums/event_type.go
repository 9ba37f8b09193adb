package enums

// EventType labels domain events published to Pub/Sub.
type EventType string

const (
	EventQuizCreated    EventType = "quiz.created"
	EventMemberJoined   EventType = "company.member_joined"
	EventMemberRemoved  EventType = "company.member_removed"
	EventInviteCreated  EventType = "company.invite_created"
	EventRequestCreated EventType = "company.join_request_created"
)

// String implements fmt.Stringer.
func (e EventType) String() string {
	return string(e)
}

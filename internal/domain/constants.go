package domain

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Activity types recorded in the location activity log.
const (
	ActivityLogin        = "login"
	ActivityCheckIn      = "check_in"
	ActivityGroupCreated = "group_created"
	ActivityUserJoined   = "user_joined"
	ActivityUserLeft     = "user_left"
	ActivityMessageSent  = "message_sent"
)

const (
	DefaultMessagePageSize = 50
	MaxMessagePageSize     = 100
	NameSearchLimit        = 20
	DefaultNearbyLimit     = 50
)

package common

const (
	// ProfilesTable is the record store table holding one row per user.
	ProfilesTable = "profiles"

	// AvatarsBucket is the object store bucket for profile images.
	AvatarsBucket = "avatars"

	// SessionTokenKey is the local metadata key of the persisted access token.
	SessionTokenKey = "session_token"

	// SnapshotSaltKey holds the salt of the key that seals the session token.
	SnapshotSaltKey = "snapshot_salt"
)

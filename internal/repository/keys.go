package repository

// 键布局与历史数据兼容，不要修改
const (
	inviteKeyPrefix   = "invite:"
	teamKeyPrefix     = "team:"
	metadataKeyPrefix = "metadata:"
)

// InviteKey invite:<code>
func InviteKey(code string) string {
	return inviteKeyPrefix + code
}

// TeamInvitesKey team:<team_id>:invites
func TeamInvitesKey(teamID string) string {
	return teamKeyPrefix + teamID + ":invites"
}

// TeamMembersKey team:<team_id>:members
func TeamMembersKey(teamID string) string {
	return teamKeyPrefix + teamID + ":members"
}

// MetadataKey metadata:<url>
func MetadataKey(url string) string {
	return metadataKeyPrefix + url
}

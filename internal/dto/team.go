package dto

// TeamMembersResponse 团队成员列表
type TeamMembersResponse struct {
	TeamID  string   `json:"team_id"`
	Members []string `json:"members"`
	Total   int      `json:"total"`
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"craz-web-meta/pkg/response"
)

// MustBindJSON 绑定 JSON 请求体。
// 请求体超过 BodyLimit 时写入 413，其余绑定失败写入 400。
// 调用方应在 ok=false 时直接 return。
func MustBindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "请求体过大", nil)
		return false
	}
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
	response.BadRequest(c, "请求参数无效")
	return false
}

// MustGetTeamID 从路径参数中提取 team_id。
func MustGetTeamID(c *gin.Context) (string, bool) {
	teamID := c.Param("team_id")
	if teamID == "" || len(teamID) > 64 {
		response.BadRequest(c, "team_id 无效")
		return "", false
	}
	return teamID, true
}

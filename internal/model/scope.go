package model

import (
	"strings"

	"pair_chat_server/pkg/constants"
)

// ParseScope 拆出房间名和角色专属后缀对应的角色；主频道 role 为空
func ParseScope(scope string) (roomName, role string) {
	switch {
	case strings.HasSuffix(scope, constants.ScopeSuffixClient):
		return strings.TrimSuffix(scope, constants.ScopeSuffixClient), constants.RoleClient
	case strings.HasSuffix(scope, constants.ScopeSuffixModel):
		return strings.TrimSuffix(scope, constants.ScopeSuffixModel), constants.RoleModel
	}
	return scope, ""
}

// RoleScope 房间的角色专属频道
func RoleScope(roomName, role string) string {
	if role == constants.RoleModel {
		return roomName + constants.ScopeSuffixModel
	}
	return roomName + constants.ScopeSuffixClient
}

// VisibleScopes 某角色能读到的频道：主频道和本角色频道
func VisibleScopes(roomName, role string) []string {
	return []string{roomName, RoleScope(roomName, role)}
}

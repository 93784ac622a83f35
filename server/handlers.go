package server

import (
	"voxshare/config"
	"voxshare/repository"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	userRepo  repository.UserRepository
	audioRepo repository.AudioRepository
	cfg       *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	userRepo repository.UserRepository,
	audioRepo repository.AudioRepository,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:  userRepo,
		audioRepo: audioRepo,
		cfg:       cfg,
	}
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

type ChatThread struct {
	FarmID    string                           `gorm:"type:varchar(128);primaryKey" json:"farmId"`
	ThreadID  string                           `gorm:"type:varchar(64);primaryKey" json:"threadId"`
	Model     string                           `gorm:"type:varchar(64)" json:"model"`
	Messages  datatypes.JSONSlice[ChatMessage] `json:"messages"`
	Last      datatypes.JSONType[ChatMessage]  `json:"last"`
	CreatedAt time.Time                        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time                        `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (ChatThread) TableName() string {
	return "chat_threads"
}

package activity

import (
	"crypto/rand"
	"encoding/hex"
)

// generateID 生成活动 ID
// 格式：act-xxxxxxxxxxxx（12 字符 hex）
func generateID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return "act-" + hex.EncodeToString(b)
}

package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// generateID 生成用户 ID
// 格式：usr-xxxxxxxxxxxx（12 字符 hex）
func generateID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return "usr-" + hex.EncodeToString(b)
}

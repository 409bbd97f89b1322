// Package httpx 统一 JSON 响应信封
//
// 所有接口使用同一信封格式：
//
//	成功: {"success": true,  "data": ..., "count": N?}
//	失败: {"success": false, "error": "..."}
//
// 处理器内错误一律就地转换为信封，不向上层抛出。
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope 响应信封
// Data 与 Error 互斥，由 Success 区分；Count 仅列表响应携带
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// WriteData 写入成功响应
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, Envelope{Success: true, Data: data})
}

// WriteList 写入带 count 的列表响应
func WriteList(w http.ResponseWriter, status int, data interface{}, count int) {
	writeEnvelope(w, status, Envelope{Success: true, Data: data, Count: &count})
}

// WriteError 写入失败响应
func WriteError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, Envelope{Success: false, Error: message})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

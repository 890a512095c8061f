package nats

import "time"

// Stream ที่เก็บ task change ย้อนหลัง (สำหรับ audit / replay)
const (
	ChangeStreamName   = "TASK_CHANGES"
	ChangeStreamMaxAge = 24 * time.Hour
)

// SubjectForUser คืน subject ของ user: {prefix}.{userID}
func SubjectForUser(prefix, userID string) string {
	return prefix + "." + userID
}

// SubjectWildcard คืน subject ที่ match ทุก user: {prefix}.>
func SubjectWildcard(prefix string) string {
	return prefix + ".>"
}

// StreamStatus สถานะของ change stream (สำหรับ Monitoring API)
type StreamStatus struct {
	Name      string `json:"name"`      // TASK_CHANGES
	Subject   string `json:"subject"`   // tasks.changes.>
	Messages  uint64 `json:"messages"`  // change ที่เก็บไว้ (ภายใน MaxAge)
	Bytes     uint64 `json:"bytes"`     // ขนาด data ทั้งหมด
	FirstSeq  uint64 `json:"first_seq"` // Sequence แรก
	LastSeq   uint64 `json:"last_seq"`  // Sequence ล่าสุด
	Connected bool   `json:"connected"`
}

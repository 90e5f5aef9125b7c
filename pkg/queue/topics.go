package queue

// 主题命名：moments.<域>.<动作>.
const (
	// TopicMediaStored 媒体记录已写入 KV.
	TopicMediaStored = "moments.media.stored"
)

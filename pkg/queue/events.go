package queue

import "github.com/ThreeDotsLabs/watermill/message"

// PublishMediaStored 发布 moments.media.stored.
// 消息 ID 使用媒体 key，便于 JetStream 去重.
func PublishMediaStored(pub message.Publisher, payload MediaStoredPayload, opts ...func(*EventHeader)) error {
	msg, err := newWatermillMessage(payload.Media.Key, TopicMediaStored, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicMediaStored, msg)
}

// ParseMediaStored 解析 moments.media.stored 消息.
func ParseMediaStored(msg *message.Message) (Message[MediaStoredPayload], error) {
	return ParseWatermillMessage[MediaStoredPayload](msg)
}

package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	ctxPkg "github.com/yeisme/moments/pkg/context"
	"github.com/yeisme/moments/pkg/internal/model"
	"github.com/yeisme/moments/pkg/internal/storage/kv"
	"github.com/yeisme/moments/pkg/internal/types"
	nlog "github.com/yeisme/moments/pkg/log"
	"github.com/yeisme/moments/pkg/queue"
	"github.com/yeisme/moments/pkg/rule"
)

const (
	// DefaultLedgerPageSize 台账列表默认条数.
	DefaultLedgerPageSize = 50
	// reconcileBatchSize 对账时每批比对的键数量.
	reconcileBatchSize = 200
)

// LedgerService 维护上传台账（media_uploads）. 台账只是运维索引，读路径不依赖它.
type LedgerService struct {
	db *gorm.DB
	kv kv.KVStore
}

// NewLedgerServiceWith 使用显式依赖创建服务.
func NewLedgerServiceWith(db *gorm.DB, store kv.KVStore) *LedgerService {
	return &LedgerService{db: db, kv: store}
}

// NewLedgerService 从 context 获取依赖实例，数据库未启用时返回错误.
func NewLedgerService(c context.Context) (*LedgerService, error) {
	dbc := ctxPkg.GetDBClient(c)
	kvc := ctxPkg.GetKVClient(c)

	if dbc == nil || dbc.DB == nil {
		return nil, errors.New("ledger database not enabled")
	}

	if kvc == nil || kvc.KVStore == nil {
		return nil, errors.New("kv store not initialized")
	}

	return NewLedgerServiceWith(dbc.DB, kvc), nil
}

// Record 写入一条台账，键已存在时不做任何修改. 返回是否新增.
func (l *LedgerService) Record(ctx context.Context, payload queue.MediaStoredPayload) (bool, error) {
	ref := payload.Media
	if ref.Key == "" {
		return false, badRequest("missing media key")
	}

	row := model.MediaUpload{
		Key:             ref.Key,
		FileID:          ref.FileID,
		FileName:        ref.FileName,
		MimeType:        ref.MimeType,
		Kind:            ref.Kind,
		FileSize:        ref.FileSize,
		ThumbnailFileID: ref.ThumbnailFileID,
		Source:          payload.Source,
		UploadedAt:      uploadedAt(ref.Key),
	}

	res := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "media_key"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return false, internal("record media upload", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// List 按上传时间倒序列出台账.
func (l *LedgerService) List(ctx context.Context, limit, offset int) ([]types.MediaLedgerEntry, error) {
	if limit <= 0 {
		limit = DefaultLedgerPageSize
	}

	var rows []model.MediaUpload
	if err := l.db.WithContext(ctx).
		Order("uploaded_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, internal("list media uploads", err)
	}

	entries := make([]types.MediaLedgerEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, types.MediaLedgerEntry{
			Key:          r.Key,
			Kind:         r.Kind,
			FileName:     r.FileName,
			MimeType:     r.MimeType,
			FileSize:     r.FileSize,
			HasThumbnail: r.ThumbnailFileID != "",
			StoredAt:     r.UploadedAt.UnixMilli(),
		})
	}

	return entries, nil
}

// Forget 删除台账中的一条记录，不存在时不报错.
func (l *LedgerService) Forget(ctx context.Context, key string) error {
	if err := l.db.WithContext(ctx).Where("media_key = ?", key).Delete(&model.MediaUpload{}).Error; err != nil {
		return internal("delete media upload", err)
	}

	return nil
}

// ReconcileResult 一次对账的统计.
type ReconcileResult struct {
	Scanned int `json:"scanned"`
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Reconcile 遍历 KV 中的媒体记录，补录台账中缺失的行.
func (l *LedgerService) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	keys, err := l.kv.Keys(ctx, "")
	if err != nil {
		return result, internal("list media keys", err)
	}

	valid := make([]string, 0, len(keys))
	for _, k := range keys {
		if rule.ValidateVar(k, "upload_key") != nil || strings.HasPrefix(k, ThumbPrefix) {
			result.Skipped++

			continue
		}

		valid = append(valid, k)
	}

	result.Scanned = len(valid)

	for start := 0; start < len(valid); start += reconcileBatchSize {
		end := min(start+reconcileBatchSize, len(valid))
		batch := valid[start:end]

		var existing []string
		if err := l.db.WithContext(ctx).Model(&model.MediaUpload{}).
			Where("media_key IN ?", batch).
			Pluck("media_key", &existing).Error; err != nil {
			return result, internal("query media uploads", err)
		}

		known := make(map[string]struct{}, len(existing))
		for _, k := range existing {
			known[k] = struct{}{}
		}

		for _, k := range batch {
			if _, ok := known[k]; ok {
				continue
			}

			added, err := l.backfill(ctx, k)
			if err != nil {
				return result, err
			}

			if added {
				result.Added++
			} else {
				result.Skipped++
			}
		}
	}

	return result, nil
}

// backfill 读取记录并补录；记录已被删除或无法解析时跳过.
func (l *LedgerService) backfill(ctx context.Context, key string) (bool, error) {
	data, err := l.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return false, nil
	} else if err != nil {
		return false, internal("load media record", err)
	}

	var rec types.MediaRecord
	if err := sonic.Unmarshal(data, &rec); err != nil || rec.FileID == "" {
		nlog.Logger().Warn().Err(err).Str("key", key).Msg("skip undecodable media record")

		return false, nil
	}

	if rec.Key == "" {
		rec.Key = key
	}

	return l.Record(ctx, queue.MediaStoredPayload{Media: MediaRefOf(&rec), Source: queue.SourceReconcile})
}

// Consume 消费 moments.media.stored 直到 ctx 结束或通道关闭.
// 写入失败也会确认消息，缺失的行由定时对账补录.
func (l *LedgerService) Consume(ctx context.Context, msgs <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			l.handle(ctx, msg)
		}
	}
}

func (l *LedgerService) handle(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	ev, err := queue.ParseMediaStored(msg)
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("uuid", msg.UUID).Msg("drop malformed media stored event")

		return
	}

	added, err := l.Record(ctx, ev.Payload)
	if err != nil {
		nlog.Logger().Error().Err(err).Str("key", ev.Payload.Media.Key).Msg("record media upload failed")

		return
	}

	nlog.Logger().Debug().Str("key", ev.Payload.Media.Key).Bool("added", added).Msg("media upload recorded")
}

// uploadedAt 从键中的毫秒时间戳还原上传时间，无法解析时为零值.
func uploadedAt(key string) time.Time {
	ts, _, _ := strings.Cut(strings.TrimPrefix(key, ThumbPrefix), ".")

	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.UnixMilli(ms).UTC()
}

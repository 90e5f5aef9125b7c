package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/moments/pkg/configs"
	"github.com/yeisme/moments/pkg/internal/service"
	"github.com/yeisme/moments/pkg/internal/types"
	"github.com/yeisme/moments/pkg/log"
)

// UploadFile 接收 multipart 字段 file，转存到上游并返回媒体记录.
//
//	@Summary		上传媒体文件
//	@Description	把 multipart 字段 file 转存到 Telegram，返回媒体记录与公开地址。image/gif 以 image/jpeg 转发
//	@Tags			媒体
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file									true	"待上传的文件"
//	@Success		200		{object}	types.SuccessResponse{data=types.MediaRecord}	"媒体记录"
//	@Failure		400		{object}	types.ErrorResponse						"缺少文件或文件过大"
//	@Failure		500		{object}	types.ErrorResponse						"上游错误，error 为上游原始负载"
//	@Router			/api/upload-file [post]
func UploadFile(c *gin.Context) {
	if limit := configs.GetConfig().Media.MaxUploadBytes(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	var form types.UploadFileForm
	if err := c.ShouldBind(&form); err != nil || form.File == nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusBadRequest, "file too large", err)
			return
		}

		fail(c, http.StatusBadRequest, "missing file", err)

		return
	}

	f, err := form.File.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "unreadable file", err)
		return
	}
	defer f.Close()

	ctx := c.Request.Context()

	svc, err := service.NewMediaService(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, "media service unavailable", err)
		return
	}

	rec, err := svc.Upload(ctx, &service.UploadInput{
		FileName:    form.File.Filename,
		ContentType: form.File.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse{Success: true, Message: "file uploaded", Data: rec})
}

// GetFile 回传主文件字节.
//
//	@Summary		读取媒体文件
//	@Description	按键解析上游文件路径并流式回传字节，Content-Type 由键的扩展名决定
//	@Tags			媒体
//	@Produce		octet-stream
//	@Param			key	path		string				true	"上传键，例如 1712000000000.png"
//	@Success		200	{file}		binary				"文件字节"
//	@Failure		404	{object}	types.ErrorResponse	"键不存在"
//	@Failure		500	{object}	types.ErrorResponse	"上游错误"
//	@Router			/api/file/{key} [get]
func GetFile(c *gin.Context) {
	stream(c, (*service.MediaService).OpenPrimary)
}

// GetThumbnail 回传 :key 对应记录的缩略图，记录没有缩略图时返回 400.
//
//	@Summary		读取缩略图
//	@Description	key 为主文件的上传键，记录没有缩略图时返回 400
//	@Tags			媒体
//	@Produce		octet-stream
//	@Param			key	path		string				true	"主文件的上传键"
//	@Success		200	{file}		binary				"缩略图字节"
//	@Failure		400	{object}	types.ErrorResponse	"记录没有缩略图"
//	@Failure		404	{object}	types.ErrorResponse	"键不存在"
//	@Failure		500	{object}	types.ErrorResponse	"上游错误"
//	@Router			/api/file/thumb/{key} [get]
func GetThumbnail(c *gin.Context) {
	stream(c, (*service.MediaService).OpenThumbnail)
}

type openFunc func(s *service.MediaService, ctx context.Context, key string) (*service.MediaStream, error)

func stream(c *gin.Context, open openFunc) {
	ctx := c.Request.Context()

	svc, err := service.NewMediaService(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, "media service unavailable", err)
		return
	}

	ms, err := open(svc, ctx, c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer ms.Body.Close()

	c.DataFromReader(http.StatusOK, ms.ContentLength, ms.ContentType, ms.Body, nil)

	if err := c.Errors.Last(); err != nil {
		l := log.Logger()
		l.Warn().Err(err).Str("key", c.Param("key")).Msg("stream interrupted")
	}
}

// GetFileInfo 返回持久化的原始记录，支持 If-None-Match.
//
//	@Summary		查询媒体记录
//	@Description	返回 KV 中保存的媒体记录，响应带 ETag
//	@Tags			媒体
//	@Produce		json
//	@Param			key				path		string											true	"上传键"
//	@Param			If-None-Match	header		string											false	"上次响应的 ETag"
//	@Success		200				{object}	types.SuccessResponse{data=types.MediaRecord}	"媒体记录"
//	@Success		304				"记录未变化"
//	@Failure		404				{object}	types.ErrorResponse								"键不存在"
//	@Router			/api/file-info/{key} [get]
func GetFileInfo(c *gin.Context) {
	ctx := c.Request.Context()

	svc, err := service.NewMediaService(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, "media service unavailable", err)
		return
	}

	raw, err := svc.Info(ctx, c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}

	etag := fmt.Sprintf(`"%x"`, xxhash.Sum64(raw))
	c.Header("ETag", etag)

	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse{Success: true, Data: json.RawMessage(raw)})
}

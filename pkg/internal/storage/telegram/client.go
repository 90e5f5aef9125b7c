// Package telegram 把 Telegram Bot API 当作二进制对象存储使用.
// 上传走 sendDocument，下载分两步：getFile 解析临时路径，再从 file 端点读取字节.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/moments/pkg/configs"
	"github.com/yeisme/moments/pkg/metrics"
	"github.com/yeisme/moments/pkg/tracing"
)

// maxErrorBody 读取上游错误响应的上限.
const maxErrorBody = 64 << 10

// Client Telegram Bot API 客户端.
// 不设置整体超时，请求生命周期由调用方的 context 控制.
type Client struct {
	cfg  configs.TelegramConfig
	http *http.Client
}

// Option 客户端选项.
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New 创建客户端，仅校验配置，不访问网络.
func New(cfg configs.TelegramConfig, opts ...Option) (*Client, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("telegram bot token is required")
	}

	if cfg.ChatID == "" {
		return nil, errors.New("telegram chat id is required")
	}

	if cfg.APIBase == "" {
		cfg.APIBase = configs.DefaultTelegramAPIBase
	}

	c := &Client{cfg: cfg, http: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// ChatID 返回目标会话.
func (c *Client) ChatID() string {
	return c.cfg.ChatID
}

// Upload 待转发的文件.
type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// SendDocument 以 multipart 形式把文件发送到配置的会话，返回 Bot 生成的消息.
func (c *Client) SendDocument(ctx context.Context, up Upload) (msg *Message, err error) {
	ctx, span := tracing.StartSpan(ctx, "telegram.sendDocument")
	defer span.End()

	span.SetAttributes(attribute.String("file.name", up.FileName), attribute.String("file.type", up.ContentType))

	start := time.Now()
	defer func() { observe("sendDocument", start, err) }()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	written := make(chan struct{})

	go func() {
		defer close(written)

		pw.CloseWithError(writeDocumentForm(mw, c.cfg.ChatID, up))
	}()

	// 返回前确保写入协程已退出，调用方随后可以安全关闭 up.Body
	defer func() {
		_ = pr.Close()
		<-written
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BotEndpoint("sendDocument"), pr)
	if err != nil {
		return nil, requestError("sendDocument", err)
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)

	if err != nil {
		err = requestError("sendDocument", err)
		tracing.RecordError(span, err)

		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	msg = &Message{}
	if err := c.decode(resp, "sendDocument", msg); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	return msg, nil
}

func writeDocumentForm(mw *multipart.Writer, chatID string, up Upload) error {
	if err := mw.WriteField("chat_id", chatID); err != nil {
		return err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="document"; filename="%s"`, escapeQuotes(up.FileName)))

	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	if _, err := io.Copy(part, up.Body); err != nil {
		return fmt.Errorf("copy document body: %w", err)
	}

	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// GetFile 查询句柄对应的下载路径.
// 非 2xx 返回 *APIError；2xx 但 ok=false 或缺少结果时返回空 File，由调用方决定是否重试.
func (c *Client) GetFile(ctx context.Context, fileID string) (file *File, err error) {
	ctx, span := tracing.StartSpan(ctx, "telegram.getFile")
	defer span.End()

	start := time.Now()
	defer func() { observe("getFile", start, err) }()

	endpoint := c.cfg.BotEndpoint("getFile") + "?" + url.Values{"file_id": {fileID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, requestError("getFile", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		err = requestError("getFile", err)
		tracing.RecordError(span, err)

		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		err = newAPIError("getFile", resp)
		tracing.RecordError(span, err)

		return nil, err
	}

	var envelope apiResponse
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode getFile response: %w", err)
	}

	file = &File{}
	if !envelope.OK || len(envelope.Result) == 0 {
		return file, nil
	}

	if err := sonic.Unmarshal(envelope.Result, file); err != nil {
		return nil, fmt.Errorf("decode getFile result: %w", err)
	}

	span.SetAttributes(attribute.Bool("file.path_resolved", file.FilePath != ""))

	return file, nil
}

// Download 下载 getFile 得到的临时路径，调用方负责关闭 Body.
type Download struct {
	Body          io.ReadCloser
	ContentLength int64
}

// Download 按临时路径读取文件字节.
func (c *Client) Download(ctx context.Context, filePath string) (dl *Download, err error) {
	ctx, span := tracing.StartSpan(ctx, "telegram.download")
	defer span.End()

	start := time.Now()
	defer func() { observe("download", start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.FileEndpoint(filePath), nil)
	if err != nil {
		return nil, requestError("download", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		err = requestError("download", err)
		tracing.RecordError(span, err)

		return nil, err
	}

	if !isSuccess(resp.StatusCode) {
		defer resp.Body.Close()

		err = newAPIError("download", resp)
		tracing.RecordError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.Int64("http.response_content_length", resp.ContentLength))

	return &Download{Body: resp.Body, ContentLength: resp.ContentLength}, nil
}

// GetMe 校验 token 是否可用，用于健康检查.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	ctx, span := tracing.StartSpan(ctx, "telegram.getMe")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BotEndpoint("getMe"), nil)
	if err != nil {
		return nil, requestError("getMe", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, requestError("getMe", err)
	}
	defer resp.Body.Close()

	user := &User{}
	if err := c.decode(resp, "getMe", user); err != nil {
		return nil, err
	}

	return user, nil
}

// decode 解析 {ok, result}，非 2xx 或 ok=false 时返回 *APIError.
func (c *Client) decode(resp *http.Response, method string, out any) error {
	if !isSuccess(resp.StatusCode) {
		return newAPIError(method, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}

	if !envelope.OK {
		return &APIError{Method: method, StatusCode: resp.StatusCode, Body: body}
	}

	if err := sonic.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}

	return nil
}

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

func observe(method string, start time.Time, err error) {
	outcome := "ok"

	var apiErr *APIError

	switch {
	case errors.As(err, &apiErr):
		outcome = strconv.Itoa(apiErr.StatusCode)
	case err != nil:
		outcome = "error"
	}

	metrics.ObserveProviderRequest(method, outcome, time.Since(start))
}

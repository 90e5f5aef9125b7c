// Package telegramtest 提供用于测试的 Bot API 假服务，覆盖 sendDocument、getFile 与文件下载.
package telegramtest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/yeisme/moments/pkg/configs"
	"github.com/yeisme/moments/pkg/internal/storage/telegram"
)

const (
	// Token 假服务接受的 Bot token.
	Token = "1:test"
	// ChatID 假服务接受的会话.
	ChatID = "-1001"
)

// Document 一次 sendDocument 收到的文件.
type Document struct {
	ChatID      string
	FileName    string
	ContentType string
	Data        []byte
}

// Reply 自定义响应.
type Reply struct {
	Status int
	Body   string
}

type storedFile struct {
	path string
	data []byte
}

// Server Bot API 假服务. 默认行为：sendDocument 以 document 附件回复并登记文件，getFile 返回登记的路径.
type Server struct {
	*httptest.Server

	// SendReply 非空时替代默认的 sendDocument 回复
	SendReply func(doc Document) Reply
	// GetFileReply 非空时替代默认的 getFile 回复，attempt 从 1 开始
	GetFileReply func(fileID string, attempt int) Reply

	mu       sync.Mutex
	docs     []Document
	files    map[string]storedFile
	getFiles map[string]int
	seq      int
}

// NewServer 启动假服务，调用方负责 Close.
func NewServer() *Server {
	s := &Server{
		files:    map[string]storedFile{},
		getFiles: map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))

	return s
}

// Config 返回指向假服务的配置.
func (s *Server) Config() configs.TelegramConfig {
	return configs.TelegramConfig{APIBase: s.URL, BotToken: Token, ChatID: ChatID}
}

// NewClient 创建连接假服务的客户端.
func (s *Server) NewClient() (*telegram.Client, error) {
	return telegram.New(s.Config(), telegram.WithHTTPClient(s.Client()))
}

// AddFile 登记句柄对应的路径与内容.
func (s *Server) AddFile(fileID, filePath string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[fileID] = storedFile{path: filePath, data: data}
}

// Documents 返回收到的全部文件.
func (s *Server) Documents() []Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Document(nil), s.docs...)
}

// GetFileCalls 返回某个句柄的 getFile 调用次数.
func (s *Server) GetFileCalls(fileID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getFiles[fileID]
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/bot"+Token+"/sendDocument":
		s.sendDocument(w, r)
	case r.URL.Path == "/bot"+Token+"/getFile":
		s.getFile(w, r)
	case r.URL.Path == "/bot"+Token+"/getMe":
		writeJSON(w, http.StatusOK, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"moments","username":"moments_bot"}}`)
	case strings.HasPrefix(r.URL.Path, "/file/bot"+Token+"/"):
		s.download(w, strings.TrimPrefix(r.URL.Path, "/file/bot"+Token+"/"))
	default:
		writeJSON(w, http.StatusNotFound, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

func (s *Server) sendDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: invalid form"}`)
		return
	}

	f, hdr, err := r.FormFile("document")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: there is no document in the request"}`)
		return
	}
	defer f.Close()

	data, _ := io.ReadAll(f)
	doc := Document{
		ChatID:      r.FormValue("chat_id"),
		FileName:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}

	s.mu.Lock()
	s.docs = append(s.docs, doc)
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	if s.SendReply != nil {
		reply := s.SendReply(doc)
		writeJSON(w, reply.Status, reply.Body)

		return
	}

	fileID := fmt.Sprintf("DOC%d", seq)
	s.AddFile(fileID, fmt.Sprintf("documents/file_%d%s", seq, path.Ext(doc.FileName)), data)

	body, _ := sonic.MarshalString(map[string]any{
		"ok": true,
		"result": map[string]any{
			"message_id": seq,
			"date":       1712000000,
			"chat":       map[string]any{"id": ChatID},
			"from":       map[string]any{"id": 1, "is_bot": true},
			"document": map[string]any{
				"file_id":   fileID,
				"file_name": doc.FileName,
				"mime_type": doc.ContentType,
				"file_size": len(data),
			},
		},
	})
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("file_id")

	s.mu.Lock()
	s.getFiles[fileID]++
	attempt := s.getFiles[fileID]
	stored, ok := s.files[fileID]
	s.mu.Unlock()

	if s.GetFileReply != nil {
		reply := s.GetFileReply(fileID, attempt)
		writeJSON(w, reply.Status, reply.Body)

		return
	}

	if !ok {
		writeJSON(w, http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: invalid file_id"}`)
		return
	}

	writeJSON(w, http.StatusOK, fmt.Sprintf(`{"ok":true,"result":{"file_id":%q,"file_size":%d,"file_path":%q}}`,
		fileID, len(stored.data), stored.path))
}

func (s *Server) download(w http.ResponseWriter, filePath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.files {
		if f.path == filePath {
			w.Header().Set("Content-Length", fmt.Sprint(len(f.data)))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(f.data)

			return
		}
	}

	writeJSON(w, http.StatusNotFound, `{"ok":false,"error_code":404,"description":"Not Found"}`)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

package service

import (
	"path"
	"strings"
)

// DefaultContentType 未知扩展名时使用的类型.
const DefaultContentType = "text/plain"

// contentTypes 扩展名到 Content-Type 的静态映射，不做内容嗅探.
var contentTypes = map[string]string{
	// 文本
	"txt":  "text/plain; charset=UTF-8",
	"csv":  "text/csv; charset=UTF-8",
	"html": "text/html; charset=UTF-8",
	"css":  "text/css; charset=UTF-8",
	"js":   "application/javascript; charset=UTF-8",
	"json": "application/json; charset=UTF-8",
	"xml":  "application/xml; charset=UTF-8",
	"md":   "text/markdown; charset=UTF-8",

	// 图片
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"ico":  "image/x-icon",

	// 音频
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"aac":  "audio/aac",
	"flac": "audio/flac",

	// 视频
	"mp4":  "video/mp4",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"webm": "video/webm",
	"mkv":  "video/x-matroska",

	// 文档
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",

	// 压缩包
	"zip": "application/zip",
	"rar": "application/vnd.rar",
	"7z":  "application/x-7z-compressed",
	"tar": "application/x-tar",
	"gz":  "application/gzip",

	// 其他
	"bin":   "application/octet-stream",
	"exe":   "application/octet-stream",
	"ttf":   "font/ttf",
	"otf":   "font/otf",
	"woff":  "font/woff",
	"woff2": "font/woff2",
}

// ContentTypeFor 按扩展名（不含点，大小写不敏感）查表.
func ContentTypeFor(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return ct
	}

	return DefaultContentType
}

// extOf 返回名称最后一段扩展名，没有时为空.
func extOf(name string) string {
	return strings.TrimPrefix(path.Ext(name), ".")
}

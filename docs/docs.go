// Package docs 与 swag init 按处理器注解生成的 OpenAPI 文档保持一致.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "yeisme"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/license/mit/"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/upload-file": {
            "post": {
                "description": "把 multipart 字段 file 转存到 Telegram，返回媒体记录与公开地址。image/gif 以 image/jpeg 转发",
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "媒体"
                ],
                "summary": "上传媒体文件",
                "parameters": [
                    {
                        "type": "file",
                        "description": "待上传的文件",
                        "name": "file",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "媒体记录",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/types.SuccessResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/types.MediaRecord"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "缺少文件或文件过大",
                        "schema": {
                            "$ref": "#/definitions/types.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "上游错误，error 为上游原始负载",
                        "schema": {
                            "$ref": "#/definitions/types.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/file-info/{key}": {
            "get": {
                "description": "返回 KV 中保存的媒体记录，响应带 ETag",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "媒体"
                ],
                "summary": "查询媒体记录",
                "parameters": [
                    {
                        "type": "string",
                        "description": "上传键",
                        "name": "key",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "上次响应的 ETag",
                        "name": "If-None-Match",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "媒体记录",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/types.SuccessResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/types.MediaRecord"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "304": {
                        "description": "记录未变化"
                    },
                    "404": {
                        "description": "键不存在",
                        "schema": {
                            "$ref": "#/definitions/types.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/file/thumb/{key}": {
            "get": {
                "description": "key 为主文件的上传键，记录没有缩略图时返回 400",
                "produces": [
                    "application/octet-stream"
                ],
                "tags": [
                    "媒体"
                ],
                "summary": "读取缩略图",
                "parameters": [
                    {
                        "type": "string",
                        "description": "主文件的上传键",
                        "name": "key",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "缩略图字节",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "记录没有缩略图",
                        "schema": {
                            "$ref": "#/definitions/types.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "键不存在",
                        "schema": {
                            "$ref": "#/definitions/types.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "上游错误",
                        "schema": {
                            "$ref": "#/definitions/types.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/file/{key}": {
            "get": {
                "description": "按键解析上游文件路径并流式回传字节，Content-Type 由键的扩展名决定",
                "produces": [
                    "application/octet-stream"
                ],
                "tags": [
                    "媒体"
                ],
                "summary": "读取媒体文件",
                "parameters": [
                    {
                        "type": "string",
                        "description": "上传键，例如 1712000000000.png",
                        "name": "key",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "文件字节",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "404": {
                        "description": "键不存在",
                        "schema": {
                            "$ref": "#/definitions/types.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "上游错误",
                        "schema": {
                            "$ref": "#/definitions/types.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/health/db": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "健康检查"
                ],
                "summary": "db 健康检查",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/types.HealthResponse"
                        }
                    }
                }
            }
        },
        "/api/health/kv": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "健康检查"
                ],
                "summary": "kv 健康检查",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/types.HealthResponse"
                        }
                    }
                }
            }
        },
        "/api/health/mq": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "健康检查"
                ],
                "summary": "mq 健康检查",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/types.HealthResponse"
                        }
                    }
                }
            }
        },
        "/api/health/telegram": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "健康检查"
                ],
                "summary": "telegram 健康检查",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/types.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/types.HealthResponse"
                        }
                    }
                }
            }
        },
        "/api/scheduler/jobs": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "调度器"
                ],
                "summary": "列出定时任务",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {}
                        }
                    },
                    "503": {
                        "description": "调度器未启用",
                        "schema": {
                            "$ref": "#/definitions/types.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/scheduler/jobs/{name}/run": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "调度器"
                ],
                "summary": "立即执行定时任务",
                "parameters": [
                    {
                        "type": "string",
                        "description": "任务名，例如 ledger.reconcile",
                        "name": "name",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Accepted",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {}
                        }
                    },
                    "404": {
                        "description": "任务不存在",
                        "schema": {
                            "$ref": "#/definitions/types.ErrorResponse"
                        }
                    },
                    "503": {
                        "description": "调度器未启用",
                        "schema": {
                            "$ref": "#/definitions/types.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {},
                "message": {
                    "type": "string"
                },
                "success": {
                    "type": "boolean"
                }
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "component": {
                    "type": "string"
                },
                "detail": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                }
            }
        },
        "types.MediaRecord": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "integer"
                },
                "fileId": {
                    "type": "string"
                },
                "fileName": {
                    "type": "string"
                },
                "fileSize": {
                    "type": "integer"
                },
                "key": {
                    "type": "string"
                },
                "kind": {
                    "type": "string"
                },
                "message_id": {
                    "type": "integer"
                },
                "mimeType": {
                    "type": "string"
                },
                "thumbnailFileId": {
                    "type": "string"
                },
                "thumbnailKey": {
                    "type": "string"
                },
                "thumbnailUrl": {
                    "type": "string"
                },
                "url": {
                    "type": "string"
                }
            }
        },
        "types.SuccessResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "message": {
                    "type": "string"
                },
                "success": {
                    "type": "boolean"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "",
	Schemes:          []string{},
	Title:            "Moments API",
	Description:      "Moments 媒体中转服务，把 Telegram Bot API 当作文件存储，媒体记录保存在 KV 中。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

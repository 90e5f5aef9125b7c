// Package rule 提供结构体和字段验证功能的封装，基于 go-playground/validator 实现.
// 标签名为 rule，并复用 gin 的 binding 引擎，使表单绑定与配置校验共享同一套规则.
package rule

import (
	"errors"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// TagName 校验标签名.
const TagName = "rule"

var (
	inst *validator.Validate
	once sync.Once

	// uploadKeyPattern 形如 1712000000000.png 或 thumb/1712000000000.jpg.
	uploadKeyPattern = regexp.MustCompile(`^(thumb/)?\d+\.[A-Za-z0-9]+$`)
)

// initValidator 尝试复用 gin 的 validator 引擎；若不可用则新建.
func initValidator() {
	if engine := binding.Validator.Engine(); engine != nil {
		if v, ok := engine.(*validator.Validate); ok {
			inst = v
		}
	}

	if inst == nil {
		inst = validator.New()
	}

	inst.SetTagName(TagName)
	_ = inst.RegisterValidation("upload_key", validateUploadKey)
}

func validateUploadKey(fl validator.FieldLevel) bool {
	return uploadKeyPattern.MatchString(fl.Field().String())
}

// lazyInit 初始化全局 validator（幂等）.
func lazyInit() {
	once.Do(initValidator)
}

// Init 让 gin 的 binding 引擎改用 rule 标签，可重复调用.
func Init() {
	lazyInit()
}

// Engine 返回全局 *validator.Validate，若未初始化则先初始化.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// RegisterValidation 代理 RegisterValidation，确保已初始化.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// ValidationErrors 格式化后的验证错误，键为字段路径，值为未通过的规则.
type ValidationErrors map[string]string

// Errors 把 validator 的错误展开为 ValidationErrors，非校验错误返回 nil.
func Errors(err error) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}

		out[fe.Namespace()] = msg
	}

	return out
}

// ValidateStruct 对结构体执行完整校验，返回原始 error（可用 Errors 解析）.
func ValidateStruct(s any) error {
	lazyInit()

	return inst.Struct(s)
}

// ValidateVar 按规则对单个变量校验，例如: ValidateVar("1712000000000.png", "upload_key").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}

// RegisterAlias 包装 RegisterAlias，便于注册别名规则.
func RegisterAlias(alias, rules string) {
	lazyInit()

	inst.RegisterAlias(alias, rules)
}

package handler

import (
	"errors"
	"reflect"
	"strings"

	"UFresher/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"go.uber.org/zap"
)

var trans ut.Translator

// 复用 gin 的校验引擎：字段名取 json tag，错误信息用英文翻译
func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	locale := en.New()
	trans, _ = ut.New(locale, locale).GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		zap.L().Warn("register validator translations failed", zap.Error(err))
	}
}

// bindJSON 绑定失败时直接写 400，返回 false
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fe.Error()
		if trans != nil {
			msg = fe.Translate(trans)
		}
		return apperror.ValidationFailed(fe.Field(), msg)
	}
	return apperror.ValidationFailed("", "invalid request body")
}

package wire

import "github.com/pkg/errors"

var (
	// ErrMalformed 输入字节流不符合规则表 (截断、长度不一致等)
	ErrMalformed = errors.New("载荷格式错误")
	// ErrRuleTable 规则表本身有误或字段值无法编码，属于调用方的逻辑错误
	ErrRuleTable = errors.New("编码规则表错误")
)

package ikev2

import "github.com/iniwex5/ikesa/pkg/ikev2/wire"

// Payload 载荷对消息层暴露的接口。
// Encode 的结果包含通用载荷头部 (RFC 7296 3.2 节)
type Payload interface {
	wire.Structure
	Type() PayloadType
	NextType() PayloadType
	SetNextType(t PayloadType)
	Critical() bool
	Verify() error
	Encode() ([]byte, error)
}

// 通用载荷头部长度
const PAYLOAD_HEADER_LEN = 4

// PacketLog 为 true 时以 Debug 级别输出解码后的载荷结构
var PacketLog = false

package ikev2

import "github.com/pkg/errors"

var (
	// ErrNotFound 载荷格式正确，但不包含所请求的内容
	ErrNotFound = errors.New("未找到匹配的提议")

	// ErrCriticalPayload SA 载荷设置了 Critical 位
	ErrCriticalPayload = errors.New("SA 载荷设置了 Critical 位")
	// ErrProposalNumbering 提议编号违反 RFC 7296 3.3.1 的递增规则
	ErrProposalNumbering = errors.New("提议编号不连续")
	// ErrMalformedProposal 提议头部与其内容不一致
	ErrMalformedProposal = errors.New("提议头部与内容不一致")
	// ErrMalformedIKEProposal IKE 提议无法转换为 IKEProposal
	ErrMalformedIKEProposal = errors.New("IKE 提议结构不完整")
)

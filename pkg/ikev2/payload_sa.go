package ikev2

import (
	"iter"
	"slices"

	"github.com/davecgh/go-spew/spew"
	"github.com/iniwex5/ikesa/pkg/ikev2/wire"
	"github.com/iniwex5/ikesa/pkg/logger"
	"github.com/pkg/errors"
)

// SA 载荷 (RFC 7296 3.3 节)
//
//	 0                   1                   2                   3
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	| Next Payload  |C|  RESERVED   |         Payload Length        |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	~                          <Proposals>                          ~
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
type SAPayload struct {
	nextPayload   PayloadType
	critical      bool
	payloadLength uint16
	proposals     []*Proposal
}

var _ Payload = (*SAPayload)(nil)

// NewSAPayload 创建空的 SA 载荷
func NewSAPayload() *SAPayload {
	return &SAPayload{
		nextPayload:   NoNextPayload,
		payloadLength: PAYLOAD_HEADER_LEN,
	}
}

// DecodeSAPayload 从通用载荷头部开始解码一个 SA 载荷。
// data 可以比载荷长，多余部分属于后续载荷
func DecodeSAPayload(data []byte) (*SAPayload, int, error) {
	p := &SAPayload{}
	n, err := wire.Parse(data, p)
	if err != nil {
		logger.Debug("SA 载荷解码失败", logger.Int("len", len(data)), logger.Err(err))
		return nil, 0, errors.Wrap(err, "解码 SA 载荷")
	}
	if PacketLog {
		logger.Debug("SA 载荷", logger.String("dump", spew.Sdump(p)))
	}
	return p, n, nil
}

func (p *SAPayload) Type() PayloadType         { return SA }
func (p *SAPayload) NextType() PayloadType     { return p.nextPayload }
func (p *SAPayload) SetNextType(t PayloadType) { p.nextPayload = t }
func (p *SAPayload) Critical() bool            { return p.critical }
func (p *SAPayload) ProposalCount() int        { return len(p.proposals) }

// Proposals 按线上顺序 (forward) 或逆序遍历提议
func (p *SAPayload) Proposals(forward bool) iter.Seq[*Proposal] {
	if forward {
		return slices.Values(p.proposals)
	}
	return func(yield func(*Proposal) bool) {
		for _, prop := range slices.Backward(p.proposals) {
			if !yield(prop) {
				return
			}
		}
	}
}

// AddProposal 追加提议，并把 Last 标记从原来的最后一个提议移到 prop 上
func (p *SAPayload) AddProposal(prop *Proposal) {
	if n := len(p.proposals); n > 0 {
		p.proposals[n-1].setLast(false)
	}
	prop.setLast(true)
	p.proposals = append(p.proposals, prop)
	p.Length()
}

// Length 重新计算载荷长度后返回，结果不会过期
func (p *SAPayload) Length() int {
	n := PAYLOAD_HEADER_LEN
	for _, prop := range p.proposals {
		n += prop.Length()
	}
	p.payloadLength = uint16(n)
	return n
}

// Verify 检查 Critical 位和提议编号 (RFC 7296 3.3.1)。
// 第一个提议编号必须为 1，之后每个提议编号要么与当前编号相同，要么恰好加 1。
// 与当前编号相同的提议不会触发任何失败分支，因此 [1,1,2] 可以通过。
func (p *SAPayload) Verify() error {
	if p.critical {
		logger.Debug("拒绝 SA 载荷: Critical 位已设置")
		return ErrCriticalPayload
	}

	proposalNumber := 1
	first := true
	for i, prop := range p.proposals {
		num := int(prop.Number())
		if num > proposalNumber {
			if first {
				logger.Debug("拒绝 SA 载荷: 首个提议编号不是 1", logger.Int("number", num))
				return errors.Wrapf(ErrProposalNumbering, "首个提议编号为 %d", num)
			}
			if num != proposalNumber+1 {
				logger.Debug("拒绝 SA 载荷: 提议编号跳跃",
					logger.Int("expected", proposalNumber+1), logger.Int("number", num))
				return errors.Wrapf(ErrProposalNumbering, "提议 %d 之后出现 %d", proposalNumber, num)
			}
			proposalNumber = num
		} else if num < proposalNumber {
			logger.Debug("拒绝 SA 载荷: 提议编号递减",
				logger.Int("previous", proposalNumber), logger.Int("number", num))
			return errors.Wrapf(ErrProposalNumbering, "提议 %d 之后出现 %d", proposalNumber, num)
		}

		if err := prop.Verify(); err != nil {
			logger.Debug("拒绝 SA 载荷: 提议校验失败", logger.Int("index", i), logger.Err(err))
			return errors.Wrapf(err, "提议 %d", num)
		}
		first = false
	}
	return nil
}

// Encode 生成包含通用载荷头部在内的完整 SA 载荷
func (p *SAPayload) Encode() ([]byte, error) {
	b, err := wire.Generate(p)
	if err != nil {
		return nil, errors.Wrap(err, "编码 SA 载荷")
	}
	return b, nil
}

func (p *SAPayload) Rules() []wire.Rule {
	return []wire.Rule{
		wire.Uint8("next payload", (*uint8)(&p.nextPayload)),
		wire.Flag("critical", &p.critical),
		wire.Reserved("reserved", 7),
		wire.Length("payload length", &p.payloadLength),
		wire.Nested("proposals", (*proposalList)(&p.proposals)),
	}
}

// Destroy 从尾部依次销毁全部提议 (连同其变换)
func (p *SAPayload) Destroy() {
	for len(p.proposals) > 0 {
		n := len(p.proposals) - 1
		p.proposals[n].Destroy()
		p.proposals[n] = nil
		p.proposals = p.proposals[:n]
	}
	p.proposals = nil
	p.Length()
}

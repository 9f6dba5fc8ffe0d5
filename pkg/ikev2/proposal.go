package ikev2

import (
	"iter"
	"slices"

	"github.com/iniwex5/ikesa/pkg/ikev2/wire"
	"github.com/pkg/errors"
)

// Proposal 子结构 (RFC 7296 3.3.1 节)
//
//	 0                   1                   2                   3
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	| Last Substruc |   RESERVED    |         Proposal Length       |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	| Proposal Num  |  Protocol ID  |    SPI Size   |Num  Transforms|
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	~                        SPI (variable)                         ~
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	~                        <Transforms>                           ~
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
type Proposal struct {
	last           uint8
	proposalLength uint16
	number         uint8
	protocolID     ProtocolID
	spiSize        uint8
	transformCount uint8
	spi            []byte
	transforms     []*Transform
}

const PROPOSAL_HEADER_LEN = 8

func NewProposal(num uint8, proto ProtocolID, spi []byte) *Proposal {
	p := &Proposal{
		last:       lastSubstructure,
		number:     num,
		protocolID: proto,
		spiSize:    uint8(len(spi)),
		spi:        append([]byte(nil), spi...),
	}
	p.proposalLength = uint16(p.Length())
	return p
}

func (p *Proposal) Number() uint8          { return p.number }
func (p *Proposal) ProtocolID() ProtocolID { return p.protocolID }
func (p *Proposal) SPI() []byte            { return p.spi }
func (p *Proposal) SPISize() int           { return len(p.spi) }
func (p *Proposal) IsLast() bool           { return p.last == lastSubstructure }

// 仅由所属的 SAPayload 调用
func (p *Proposal) setLast(last bool) {
	if last {
		p.last = lastSubstructure
	} else {
		p.last = moreProposals
	}
}

// AddTransform 追加变换，并把 Last 标记从原来的最后一个变换移到 t 上
func (p *Proposal) AddTransform(t *Transform) {
	if n := len(p.transforms); n > 0 {
		p.transforms[n-1].setLast(false)
	}
	t.setLast(true)
	p.transforms = append(p.transforms, t)
	p.transformCount = uint8(len(p.transforms))
	p.proposalLength = uint16(p.Length())
}

// AddTransformWithKeyLen keyLen 仅用于具有可变密钥长度的加密算法，0 表示不带属性
func (p *Proposal) AddTransformWithKeyLen(tType TransformType, tID AlgorithmType, keyLen uint16) {
	p.AddTransform(NewTransformWithKeyLen(tType, tID, keyLen))
}

func (p *Proposal) TransformCount() int { return len(p.transforms) }

// Transforms 按线上顺序 (forward) 或逆序遍历变换
func (p *Proposal) Transforms(forward bool) iter.Seq[*Transform] {
	if forward {
		return slices.Values(p.transforms)
	}
	return func(yield func(*Transform) bool) {
		for _, t := range slices.Backward(p.transforms) {
			if !yield(t) {
				return
			}
		}
	}
}

func (p *Proposal) Verify() error {
	// 只有解码得到的提议才可能出现头部计数与内容不一致
	if int(p.transformCount) != len(p.transforms) {
		return errors.Wrapf(ErrMalformedProposal, "声明 %d 个变换，实际 %d 个", p.transformCount, len(p.transforms))
	}
	if int(p.spiSize) != len(p.spi) {
		return errors.Wrapf(ErrMalformedProposal, "声明 SPI 长度 %d，实际 %d", p.spiSize, len(p.spi))
	}
	for i, t := range p.transforms {
		if err := t.Verify(); err != nil {
			return errors.Wrapf(err, "变换 %d (%s)", i, t.Type())
		}
	}
	return nil
}

// Length 每次调用都按当前内容重新计算
func (p *Proposal) Length() int {
	n := PROPOSAL_HEADER_LEN + len(p.spi)
	for _, t := range p.transforms {
		n += t.Length()
	}
	return n
}

func (p *Proposal) Rules() []wire.Rule {
	return []wire.Rule{
		wire.Uint8("last substructure", &p.last),
		wire.Reserved("reserved", 8),
		wire.Length("proposal length", &p.proposalLength),
		wire.Uint8("proposal number", &p.number),
		wire.Uint8("protocol id", (*uint8)(&p.protocolID)),
		wire.Computed8("spi size", &p.spiSize, func() uint32 { return uint32(len(p.spi)) }),
		wire.Computed8("number of transforms", &p.transformCount, func() uint32 { return uint32(len(p.transforms)) }),
		wire.Chunk("spi", &p.spi, func() int { return int(p.spiSize) }),
		wire.Nested("transforms", (*transformList)(&p.transforms)),
	}
}

// Destroy 从尾部依次移除全部变换
func (p *Proposal) Destroy() {
	for len(p.transforms) > 0 {
		n := len(p.transforms) - 1
		p.transforms[n] = nil
		p.transforms = p.transforms[:n]
	}
	p.transforms = nil
	p.transformCount = 0
	p.proposalLength = uint16(p.Length())
}

type proposalList []*Proposal

func (l *proposalList) Len() int                { return len(*l) }
func (l *proposalList) At(i int) wire.Structure { return (*l)[i] }
func (l *proposalList) New() wire.Structure     { return &Proposal{} }
func (l *proposalList) Append(s wire.Structure) { *l = append(*l, s.(*Proposal)) }
